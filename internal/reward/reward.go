package reward

import (
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hal"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/window"
)

// #region phase

type phase int

const (
	idle phase = iota
	armed
	pulsing
	interPulse
)

// #endregion phase

// #region sequencer

// Sequencer delivers the configured train of fluid pulses. "Reward started"
// is reported exactly once, at the first pulse-on; "reward finished" exactly
// once, after the last pulse-off, at which point the pulse counter resets.
type Sequencer struct {
	spec *config.Reward
	pump hal.Line
	sink events.Sink

	phase           phase
	win             window.Window // current pulse or inter-pulse gap
	pulsesDelivered int
}

// NewSequencer creates an idle sequencer over the given pulse spec.
func NewSequencer(spec *config.Reward, pump hal.Line, sink events.Sink) *Sequencer {
	return &Sequencer{spec: spec, pump: pump, sink: sink}
}

// Arm schedules the first pulse at startMS.
func (s *Sequencer) Arm(startMS int64) {
	s.phase = armed
	s.win.Arm(startMS)
	s.pulsesDelivered = 0
}

// Active reports whether a train is armed or in flight.
func (s *Sequencer) Active() bool {
	return s.phase != idle
}

// PulsesDelivered returns the pulses completed in the current train. It is
// zero between trains.
func (s *Sequencer) PulsesDelivered() int {
	return s.pulsesDelivered
}

// #endregion sequencer

// #region check

// Check advances the pulse train against the clock. Called once per loop
// iteration; millisecond-window comparisons only.
func (s *Sequencer) Check(nowMS int64) {
	switch s.phase {
	case armed:
		if s.win.Due(nowMS) {
			s.pulseOn(nowMS)
		}
	case pulsing:
		if s.win.Expired(nowMS) {
			s.pulseOff(nowMS)
		}
	case interPulse:
		if s.win.Expired(nowMS) {
			s.pulseOn(nowMS)
		}
	}
}

func (s *Sequencer) pulseOn(nowMS int64) {
	s.pump.Set(true)
	s.pulsesDelivered++
	if s.pulsesDelivered == 1 {
		s.sink.Int(events.LabelRewardStart, nowMS)
	}
	s.phase = pulsing
	s.win.Activate(nowMS + s.spec.PulseWidthMS)
}

func (s *Sequencer) pulseOff(nowMS int64) {
	s.pump.Set(false)
	if s.pulsesDelivered < s.spec.PulseCount {
		s.phase = interPulse
		s.win.Activate(nowMS + s.spec.InterPulseMS)
		return
	}
	s.sink.Int(events.LabelRewardFinish, nowMS)
	s.pulsesDelivered = 0
	s.phase = idle
	s.win.Disarm()
}

// #endregion check

// #region abort

// Abort force-terminates an in-flight train: pump off, counter reset, idle.
// Used by the free-reward override and session stop.
func (s *Sequencer) Abort() {
	if s.phase == idle {
		return
	}
	s.pump.Set(false)
	s.pulsesDelivered = 0
	s.phase = idle
	s.win.Disarm()
}

// #endregion abort

// #region deliver-sync

// DeliverSync plays the whole train synchronously for the free-reward path.
// Each pulse-on and inter-pulse gap is waited out via the caller's limbo
// function, which keeps servicing sensors while blocking.
func (s *Sequencer) DeliverSync(now func() int64, wait func(untilMS int64)) {
	s.sink.Int(events.LabelRewardStart, now())
	for i := 0; i < s.spec.PulseCount; i++ {
		s.pump.Set(true)
		wait(now() + s.spec.PulseWidthMS)
		s.pump.Set(false)
		if i < s.spec.PulseCount-1 {
			wait(now() + s.spec.InterPulseMS)
		}
	}
	s.sink.Int(events.LabelRewardFinish, now())
}

// #endregion deliver-sync

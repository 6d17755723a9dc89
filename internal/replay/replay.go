// Package replay drives a controller through a scripted timeline of sensor
// levels and host commands on a fake clock. The same script always yields
// the same event stream, which makes whole-session behavior assertable.
package replay

import (
	"math/rand"
	"sort"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/clock"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hal"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/schedule"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/trial"
)

// #region script

// Step is one scripted change, applied once the clock reaches AtMS. Nil
// fields leave that input untouched.
type Step struct {
	AtMS     int64
	Nosepoke *bool
	Lick     *bool
	Command  *config.Command
}

// Script is a timeline of steps plus the iteration horizon.
type Script struct {
	Steps []Step
	EndMS int64
}

// Level is a convenience for building sensor steps.
func Level(v bool) *bool { return &v }

// Cmd is a convenience for building command steps.
func Cmd(label, value string) *config.Command {
	return &config.Command{Label: label, Value: value}
}

// #endregion script

// #region summary

// Summary aggregates the outcome notifications of one replay run.
type Summary struct {
	Trials            int
	Hits              int
	FalseAlarms       int
	Misses            int
	CorrectRejections int
	Aborted           int
	Reversals         int
	RewardsStarted    int
	RewardsFinished   int
}

// Summarize tallies a recorded event stream.
func Summarize(rec *events.Recorder) Summary {
	var s Summary
	for _, r := range rec.Records {
		switch r.Label {
		case events.LabelTrialOutcome:
			s.Trials++
			if len(r.Chars) == 2 {
				switch r.Chars[1] {
				case 'H':
					s.Hits++
				case 'F':
					s.FalseAlarms++
				case 'M':
					s.Misses++
				case 'C':
					s.CorrectRejections++
				case 'A':
					s.Aborted++
				}
			}
		case events.LabelReversal:
			s.Reversals++
		case events.LabelRewardStart:
			s.RewardsStarted++
		case events.LabelRewardFinish:
			s.RewardsFinished++
		}
	}
	return s
}

// #endregion summary

// #region queue-source

// queueSource is a CommandSource fed by the harness, one command per poll.
type queueSource struct {
	pending []config.Command
}

func (q *queueSource) push(cmd config.Command) {
	q.pending = append(q.pending, cmd)
}

func (q *queueSource) Poll() (config.Command, bool) {
	if len(q.pending) == 0 {
		return config.Command{}, false
	}
	cmd := q.pending[0]
	q.pending = q.pending[1:]
	return cmd, true
}

// #endregion queue-source

// #region harness

// Harness bundles the simulated rig around a controller.
type Harness struct {
	Clock      *clock.Fake
	Inputs     *hal.SimInputs
	Outputs    *hal.SimOutputs
	Recorder   *events.Recorder
	Controller *trial.Controller

	queue *queueSource
}

// NewHarness builds a controller over simulated hardware with the given
// parameters and a seeded random source.
func NewHarness(subj *config.Subject, rew *config.Reward, seed int64) *Harness {
	clk := clock.NewFake(0)
	inputs := &hal.SimInputs{}
	bank, outputs := hal.SimBank()
	rec := &events.Recorder{}
	queue := &queueSource{}

	sched := schedule.NewScheduler(subj, rand.New(rand.NewSource(seed)))
	ctl := trial.NewController(clk, subj, rew, sched, bank, inputs, rec, queue)
	ctl.SetIdle(func() { clk.Advance(1) })

	return &Harness{
		Clock:      clk,
		Inputs:     inputs,
		Outputs:    outputs,
		Recorder:   rec,
		Controller: ctl,
		queue:      queue,
	}
}

// Push queues a host command for the next iteration.
func (h *Harness) Push(cmd config.Command) {
	h.queue.push(cmd)
}

// RunUntil steps the controller at 1 ms resolution until the clock reaches
// endMS.
func (h *Harness) RunUntil(endMS int64) {
	for h.Clock.NowMillis() < endMS {
		h.Controller.Step()
		h.Clock.Advance(1)
	}
}

// Run plays a whole script. Steps are applied in timestamp order just before
// the iteration that first sees their time; a step landing inside a limbo
// wait takes effect when limbo's restricted polling next runs.
func (h *Harness) Run(script Script) Summary {
	steps := append([]Step(nil), script.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].AtMS < steps[j].AtMS })

	idx := 0
	for h.Clock.NowMillis() < script.EndMS {
		now := h.Clock.NowMillis()
		for idx < len(steps) && steps[idx].AtMS <= now {
			st := steps[idx]
			if st.Nosepoke != nil {
				h.Inputs.NosepokeLevel = *st.Nosepoke
			}
			if st.Lick != nil {
				h.Inputs.LickLevel = *st.Lick
			}
			if st.Command != nil {
				h.queue.push(*st.Command)
			}
			idx++
		}
		h.Controller.Step()
		h.Clock.Advance(1)
	}
	return Summarize(h.Recorder)
}

// #endregion harness

package reward

import (
	"testing"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hal"
)

func newTestSequencer(spec config.Reward) (*Sequencer, *hal.SimLine, *events.Recorder) {
	pump := &hal.SimLine{}
	rec := &events.Recorder{}
	return NewSequencer(&spec, pump, rec), pump, rec
}

// pumpTrace steps the sequencer 1 ms at a time and records the pump level at
// every millisecond.
func pumpTrace(s *Sequencer, pump *hal.SimLine, fromMS, toMS int64) []bool {
	trace := make([]bool, 0, toMS-fromMS)
	for now := fromMS; now < toMS; now++ {
		s.Check(now)
		trace = append(trace, pump.Level)
	}
	return trace
}

func TestPulseTrainTiming(t *testing.T) {
	seq, pump, rec := newTestSequencer(config.Reward{
		PulseWidthMS: 35,
		InterPulseMS: 190,
		PulseCount:   3,
	})

	seq.Arm(100)
	trace := pumpTrace(seq, pump, 0, 900)

	// Expected on-intervals: [100,135), [325,360), [550,585).
	onRanges := [][2]int64{{100, 135}, {325, 360}, {550, 585}}
	for now := int64(0); now < 900; now++ {
		want := false
		for _, r := range onRanges {
			if now >= r[0] && now < r[1] {
				want = true
			}
		}
		if trace[now] != want {
			t.Fatalf("t=%d: pump %v, want %v", now, trace[now], want)
		}
	}

	if n := rec.Count(events.LabelRewardStart); n != 1 {
		t.Fatalf("reward started %d times, want exactly 1", n)
	}
	if n := rec.Count(events.LabelRewardFinish); n != 1 {
		t.Fatalf("reward finished %d times, want exactly 1", n)
	}
	if rec.ByLabel(events.LabelRewardStart)[0].A != 100 {
		t.Fatalf("reward start at %d, want 100", rec.ByLabel(events.LabelRewardStart)[0].A)
	}
	if seq.PulsesDelivered() != 0 {
		t.Fatalf("pulse counter %d after train, want 0", seq.PulsesDelivered())
	}
	if seq.Active() {
		t.Fatal("sequencer still active after train completed")
	}
}

func TestSinglePulseTrain(t *testing.T) {
	seq, pump, rec := newTestSequencer(config.Reward{
		PulseWidthMS: 20,
		InterPulseMS: 100,
		PulseCount:   1,
	})

	seq.Arm(0)
	pumpTrace(seq, pump, 0, 200)

	if pump.Level {
		t.Fatal("pump still on after single pulse")
	}
	if pump.Flips != 2 {
		t.Fatalf("pump flipped %d times, want 2", pump.Flips)
	}
	if rec.Count(events.LabelRewardStart) != 1 || rec.Count(events.LabelRewardFinish) != 1 {
		t.Fatal("expected one start and one finish for a single pulse")
	}
}

func TestArmDelaysFirstPulse(t *testing.T) {
	seq, pump, _ := newTestSequencer(config.DefaultReward())

	seq.Arm(500)
	for now := int64(0); now < 500; now++ {
		seq.Check(now)
		if pump.Level {
			t.Fatalf("t=%d: pump on before armed start", now)
		}
	}
	seq.Check(500)
	if !pump.Level {
		t.Fatal("pump off at armed start time")
	}
}

func TestAbortStopsTrain(t *testing.T) {
	seq, pump, rec := newTestSequencer(config.DefaultReward())

	seq.Arm(0)
	seq.Check(0) // first pulse on
	if !pump.Level {
		t.Fatal("pump should be on")
	}

	seq.Abort()
	if pump.Level {
		t.Fatal("pump still on after abort")
	}
	if seq.Active() {
		t.Fatal("sequencer active after abort")
	}
	if seq.PulsesDelivered() != 0 {
		t.Fatalf("pulse counter %d after abort, want 0", seq.PulsesDelivered())
	}
	if rec.Count(events.LabelRewardFinish) != 0 {
		t.Fatal("abort must not report a finished reward")
	}
}

func TestDeliverSyncPulseTrain(t *testing.T) {
	seq, pump, rec := newTestSequencer(config.Reward{
		PulseWidthMS: 35,
		InterPulseMS: 190,
		PulseCount:   3,
	})

	now := int64(1000)
	var onMS, offMS []int64
	wait := func(untilMS int64) {
		now = untilMS
	}
	// Wrap the pump to log transitions against the simulated clock.
	seq.pump = lineFunc(func(on bool) {
		if on {
			onMS = append(onMS, now)
		} else {
			offMS = append(offMS, now)
		}
		pump.Set(on)
	})

	seq.DeliverSync(func() int64 { return now }, wait)

	wantOn := []int64{1000, 1225, 1450}
	wantOff := []int64{1035, 1260, 1485}
	if len(onMS) != 3 || len(offMS) != 3 {
		t.Fatalf("pulses on/off = %d/%d, want 3/3", len(onMS), len(offMS))
	}
	for i := range wantOn {
		if onMS[i] != wantOn[i] || offMS[i] != wantOff[i] {
			t.Fatalf("pulse %d: on=%d off=%d, want on=%d off=%d",
				i, onMS[i], offMS[i], wantOn[i], wantOff[i])
		}
	}
	if rec.Count(events.LabelRewardStart) != 1 || rec.Count(events.LabelRewardFinish) != 1 {
		t.Fatal("sync delivery must report exactly one start and one finish")
	}
}

type lineFunc func(on bool)

func (f lineFunc) Set(on bool) { f(on) }

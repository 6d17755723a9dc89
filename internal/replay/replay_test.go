package replay

import (
	"testing"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
)

func trainingSubject() config.Subject {
	subj := config.DefaultSubject()
	subj.FreeHits = 0
	subj.MeanITISec = 0
	subj.ProbGo = 100
	subj.TrackerResolutionMS = 1 << 30
	return subj
}

func TestScriptedHitSession(t *testing.T) {
	subj := trainingSubject()
	rew := config.DefaultReward()
	h := NewHarness(&subj, &rew, 7)

	sum := h.Run(Script{
		Steps: []Step{
			{AtMS: 0, Command: Cmd("session_start", "")},
			{AtMS: 600, Nosepoke: Level(true)},
			{AtMS: 1100, Nosepoke: Level(false)},
			{AtMS: 1300, Lick: Level(true)},
			{AtMS: 1500, Lick: Level(false)},
			{AtMS: 5000, Command: Cmd("session_quit", "")},
		},
		EndMS: 6000,
	})

	if sum.Trials != 1 || sum.Hits != 1 {
		t.Fatalf("summary %+v, want exactly one hit trial", sum)
	}
	if sum.RewardsStarted != 1 || sum.RewardsFinished != 1 {
		t.Fatalf("summary %+v, want one completed reward train", sum)
	}
	if sum.Misses != 0 || sum.FalseAlarms != 0 || sum.Aborted != 0 {
		t.Fatalf("summary %+v, want no other outcomes", sum)
	}
	if h.Outputs.Pump.Level || h.Outputs.Stim.Playing {
		t.Fatal("outputs not low after the scripted quit")
	}
}

func TestScriptedQuitAbortsLiveTrial(t *testing.T) {
	subj := trainingSubject()
	rew := config.DefaultReward()
	h := NewHarness(&subj, &rew, 7)

	// The nosepoke is still held through stimulus onset when the quit lands.
	sum := h.Run(Script{
		Steps: []Step{
			{AtMS: 0, Command: Cmd("session_start", "")},
			{AtMS: 600, Nosepoke: Level(true)},
			{AtMS: 1000, Command: Cmd("session_quit", "")},
		},
		EndMS: 2000,
	})

	if sum.Trials != 1 || sum.Aborted != 1 {
		t.Fatalf("summary %+v, want one aborted trial", sum)
	}
}

func TestScriptedMovementTimeoutIsMiss(t *testing.T) {
	subj := trainingSubject()
	rew := config.DefaultReward()
	h := NewHarness(&subj, &rew, 7)

	sum := h.Run(Script{
		Steps: []Step{
			{AtMS: 0, Command: Cmd("session_start", "")},
			{AtMS: 600, Nosepoke: Level(true)},
			{AtMS: 1100, Nosepoke: Level(false)},
			// No lick: the movement window runs out.
		},
		EndMS: 4000,
	})

	if sum.Trials != 1 || sum.Misses != 1 {
		t.Fatalf("summary %+v, want one missed trial", sum)
	}
	if sum.RewardsStarted != 0 {
		t.Fatalf("summary %+v, a miss must not be rewarded", sum)
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	script := Script{
		Steps: []Step{
			{AtMS: 0, Command: Cmd("session_start", "")},
			{AtMS: 600, Nosepoke: Level(true)},
			{AtMS: 1100, Nosepoke: Level(false)},
			{AtMS: 1300, Lick: Level(true)},
			{AtMS: 1500, Lick: Level(false)},
			{AtMS: 3000, Nosepoke: Level(true)},
			{AtMS: 3600, Nosepoke: Level(false)},
		},
		EndMS: 8000,
	}

	run := func() *Harness {
		subj := config.DefaultSubject()
		subj.FreeHits = 0
		subj.MeanITISec = 0
		subj.TrackerResolutionMS = 1 << 30
		rew := config.DefaultReward()
		h := NewHarness(&subj, &rew, 42)
		h.Run(script)
		return h
	}

	// The session identifier is random by design; everything else must match.
	strip := func(h *Harness) []events.Record {
		var out []events.Record
		for _, r := range h.Recorder.Records {
			if r.Label != events.LabelSessionID {
				out = append(out, r)
			}
		}
		return out
	}

	ra, rb := strip(run()), strip(run())
	if len(ra) != len(rb) {
		t.Fatalf("record counts differ: %d vs %d", len(ra), len(rb))
	}
	for i := range ra {
		if ra[i].Label != rb[i].Label || ra[i].A != rb[i].A || ra[i].B != rb[i].B ||
			string(ra[i].Chars) != string(rb[i].Chars) || ra[i].Text != rb[i].Text {
			t.Fatalf("record %d differs: %+v vs %+v", i, ra[i], rb[i])
		}
	}
}

package tracker

import (
	"testing"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hal"
)

func TestSamplerHonorsResolution(t *testing.T) {
	subj := config.DefaultSubject()
	subj.TrackerResolutionMS = 50
	inputs := &hal.SimInputs{Mask: 0b101}
	rec := &events.Recorder{}
	s := NewSampler(&subj, inputs, rec)

	for now := int64(0); now < 125; now++ {
		s.Check(now)
	}

	samples := rec.ByLabel(events.LabelTracker)
	if len(samples) != 3 {
		t.Fatalf("got %d samples over 125 ms at 50 ms resolution, want 3", len(samples))
	}
	for i, want := range []int64{0, 50, 100} {
		if samples[i].A != want || samples[i].B != 0b101 {
			t.Fatalf("sample %d = %d/%d, want %d/%d", i, samples[i].A, samples[i].B, want, 0b101)
		}
	}
}

func TestSamplerTracksMaskChanges(t *testing.T) {
	subj := config.DefaultSubject()
	subj.TrackerResolutionMS = 10
	inputs := &hal.SimInputs{Mask: 1}
	rec := &events.Recorder{}
	s := NewSampler(&subj, inputs, rec)

	s.Check(0)
	inputs.Mask = 2
	s.Check(10)

	samples := rec.ByLabel(events.LabelTracker)
	if len(samples) != 2 || samples[0].B != 1 || samples[1].B != 2 {
		t.Fatalf("samples %+v, want masks 1 then 2", samples)
	}
}

package tracker

import (
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hal"
)

// #region sampler

// Sampler periodically reads the position-tracker bitmask and forwards it
// with its timestamp. It has no trial logic and keeps running during limbo.
type Sampler struct {
	subj   *config.Subject
	inputs hal.Inputs
	sink   events.Sink
	nextMS int64
}

// NewSampler creates a sampler that fires on its first Check.
func NewSampler(subj *config.Subject, inputs hal.Inputs, sink events.Sink) *Sampler {
	return &Sampler{subj: subj, inputs: inputs, sink: sink}
}

// Check emits one sample when the configured resolution has elapsed.
func (s *Sampler) Check(nowMS int64) {
	if nowMS < s.nextMS {
		return
	}
	s.sink.IntPair(events.LabelTracker, nowMS, s.inputs.PositionMask())
	res := s.subj.TrackerResolutionMS
	if res < 1 {
		res = 1
	}
	s.nextMS = nowMS + res
}

// #endregion sampler

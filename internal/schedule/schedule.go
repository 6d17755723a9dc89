package schedule

import (
	"math"
	"math/rand"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
)

// #region stimulus

// Class is the stimulus class of a trial.
type Class int

const (
	// Go trials are rewarded when the subject licks in time.
	Go Class = iota
	// Nogo trials are correct when the subject withholds the lick.
	Nogo
)

// String returns the class name.
func (c Class) String() string {
	if c == Go {
		return "go"
	}
	return "nogo"
}

// Code returns the one-byte class code used in host notifications.
func (c Class) Code() byte {
	if c == Go {
		return 'G'
	}
	return 'N'
}

// Stimulus is a planned or playing stimulus: a class plus one identity byte
// drawn from that class's active set.
type Stimulus struct {
	Class Class
	Ident byte
}

// #endregion stimulus

// #region scheduler

// Scheduler draws inter-trial intervals, selects the next stimulus under
// run-length and free-hit constraints, and maintains the sliding-accuracy
// reversal criterion. It owns the Go/Nogo run counters and the circular
// correctness buffer; the identity sets live in the subject config and are
// swapped in place on a reversal.
type Scheduler struct {
	subj *config.Subject
	rng  *rand.Rand

	selections int // stimuli selected so far; free hits compare against this
	goRow      int
	nogoRow    int

	// Sliding-accuracy switch state. The buffer capacity is fixed; the
	// configured window length is clamped to it at configuration time.
	buf               [config.MaxWindowLength]uint8
	runningSum        int
	trialIndex        int
	indexAtLastSwitch int
	switchCount       int
}

// NewScheduler creates a scheduler over the given subject parameters. The
// rand source is injected so sessions and tests can be replayed.
func NewScheduler(subj *config.Subject, rng *rand.Rand) *Scheduler {
	return &Scheduler{subj: subj, rng: rng}
}

// #endregion scheduler

// #region draw-iti

// DrawITISeconds draws the next inter-trial interval in whole seconds.
// Free-hit trials and a zero mean fire immediately. Otherwise the interval is
// an inverse-CDF draw t = floor(ln(u)/ln(1-1/mean)) with u strictly inside
// (0,1), clamped to [0, max].
func (s *Scheduler) DrawITISeconds() int {
	if s.selections < s.subj.FreeHits || s.subj.MeanITISec == 0 {
		return 0
	}
	if s.subj.MeanITISec <= 1 {
		return 0
	}

	u := s.rng.Float64()
	for u == 0 {
		u = s.rng.Float64()
	}

	t := int(math.Floor(math.Log(u) / math.Log(1.0-1.0/float64(s.subj.MeanITISec))))
	if t < 0 {
		t = 0
	}
	if t > s.subj.MaxITISec {
		t = s.subj.MaxITISec
	}
	return t
}

// #endregion draw-iti

// #region select-stimulus

// SelectStimulus chooses the next trial's class and identity. Go is forced
// during the free-hit warm-up and under pure-Go training; otherwise the
// run-length caps force the opposite class before the probability draw runs.
func (s *Scheduler) SelectStimulus() Stimulus {
	var class Class
	switch {
	case s.selections < s.subj.FreeHits || s.subj.ProbGo >= 100:
		class = Go
	case s.goRow >= s.subj.MaxGoRow:
		class = Nogo
	case s.nogoRow >= s.subj.MaxNogoRow:
		class = Go
	default:
		if s.rng.Intn(100) < s.subj.ProbGo {
			class = Go
		} else {
			class = Nogo
		}
	}

	if class == Go {
		s.goRow++
		s.nogoRow = 0
	} else {
		s.nogoRow++
		s.goRow = 0
	}
	s.selections++

	return Stimulus{Class: class, Ident: s.drawIdent(class)}
}

// drawIdent picks uniformly from the class's active identity set.
func (s *Scheduler) drawIdent(class Class) byte {
	set := s.subj.GoSet
	if class == Nogo {
		set = s.subj.NogoSet
	}
	if len(set) == 0 {
		return 0
	}
	return set[s.rng.Intn(len(set))]
}

// #endregion select-stimulus

// #region update-accuracy

// UpdateAccuracy records one trial's correctness in the circular buffer and
// fires a reversal when a full window has elapsed since the last switch and
// the running sum meets the criterion. The trial index always advances last.
// Returns true when a reversal fired.
func (s *Scheduler) UpdateAccuracy(correct bool) bool {
	winLen := s.subj.WinLength
	if winLen < 1 {
		winLen = 1
	}
	if winLen > config.MaxWindowLength {
		winLen = config.MaxWindowLength
	}

	slot := s.trialIndex % winLen
	s.runningSum -= int(s.buf[slot])
	var v uint8
	if correct {
		v = 1
	}
	s.runningSum += int(v)
	s.buf[slot] = v

	reversed := false
	if s.trialIndex-s.indexAtLastSwitch >= winLen && s.runningSum >= s.subj.WinCriterion {
		s.indexAtLastSwitch = s.trialIndex
		s.switchCount++
		s.subj.GoSet, s.subj.GoAlt = s.subj.GoAlt, s.subj.GoSet
		s.subj.NogoSet, s.subj.NogoAlt = s.subj.NogoAlt, s.subj.NogoSet
		reversed = true
	}

	s.trialIndex++
	return reversed
}

// #endregion update-accuracy

// #region accessors

// TrialIndex returns the number of accuracy updates recorded so far.
func (s *Scheduler) TrialIndex() int { return s.trialIndex }

// SwitchCount returns how many reversals have fired this session.
func (s *Scheduler) SwitchCount() int { return s.switchCount }

// RunningSum returns the current windowed correct-trial count.
func (s *Scheduler) RunningSum() int { return s.runningSum }

// Rows returns the current consecutive Go and Nogo selection counts.
func (s *Scheduler) Rows() (goRow, nogoRow int) { return s.goRow, s.nogoRow }

// #endregion accessors

package config

import (
	"fmt"
	"strconv"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
)

// MaxWindowLength is the fixed capacity of the sliding-accuracy buffer.
// Requested window lengths above it are clamped at configuration time.
const MaxWindowLength = 200

// #region subject

// Subject bundles the behavioral parameters for one subject. It is mutated
// only through Apply; the orchestrator and scheduler treat it as read-only
// between commands.
type Subject struct {
	FreeHits   int // initial trials forced to Go class
	MeanITISec int // mean inter-trial interval, seconds; 0 fires immediately
	MaxITISec  int // clamp on the drawn interval, seconds
	ProbGo     int // percent chance of a Go trial; 100 = pure Go training

	MaxGoRow   int // max consecutive Go selections
	MaxNogoRow int // max consecutive Nogo selections

	MaxRTMS   int64 // reaction-time window, ms
	MaxMTMS   int64 // movement-time window, ms
	StimDurMS int64 // stimulus duration, ms

	RepeatFalseAlarms bool // repeat the same stimulus with zero ITI after a false alarm
	LickTraining      bool // lick-only mode, bypassing nosepoke-gated windows

	FreeRewardTimeoutMS int64 // idle ms before an automatic free reward; 0 disables

	WinLength    int // sliding accuracy window, trials
	WinCriterion int // correct-trial count that triggers a reversal

	// Active stimulus-identity sets and their reversal partners. A reversal
	// swaps each class's active set with its partner set.
	GoSet    []byte
	NogoSet  []byte
	GoAlt    []byte
	NogoAlt  []byte

	TrackerResolutionMS int64 // position sampler period, ms
}

// Reward specifies the fluid pulse train.
type Reward struct {
	PulseWidthMS int64
	InterPulseMS int64
	PulseCount   int
}

// DefaultSubject returns the power-on parameter set. The default max ITI is
// derived from the mean as ceil(mean*9/2).
func DefaultSubject() Subject {
	return Subject{
		FreeHits:            10,
		MeanITISec:          10,
		MaxITISec:           45,
		ProbGo:              50,
		MaxGoRow:            3,
		MaxNogoRow:          3,
		MaxRTMS:             1000,
		MaxMTMS:             1500,
		StimDurMS:           2000,
		FreeRewardTimeoutMS: 0,
		WinLength:           100,
		WinCriterion:        85,
		GoSet:               []byte{'1', '2'},
		NogoSet:             []byte{'3', '4'},
		GoAlt:               []byte{'3', '4'},
		NogoAlt:             []byte{'1', '2'},
		TrackerResolutionMS: 50,
	}
}

// DefaultReward returns the power-on pulse train.
func DefaultReward() Reward {
	return Reward{
		PulseWidthMS: 35,
		InterPulseMS: 190,
		PulseCount:   3,
	}
}

// #endregion subject

// #region command

// Command is one decoded host instruction: a parameter label with an integer
// or character-set value, or an action token with an empty value.
type Command struct {
	Label string
	Value string
}

// Action identifies the session/actuator tokens that are not parameter writes.
type Action int

const (
	ActionNone Action = iota
	ActionPumpForward
	ActionPumpReverse
	ActionPumpOff
	ActionFreeReward
	ActionSessionStart
	ActionSessionQuit
)

// #endregion command

// #region apply

// Apply routes one host command. Parameter labels mutate the subject or
// reward spec 1:1; action tokens are returned for the controller to execute.
// Malformed input is converted to an error notification and discarded; the
// loop never aborts on bad input.
func Apply(subj *Subject, rew *Reward, cmd Command, sink events.Sink) Action {
	switch cmd.Label {
	case "pump_on_fwd":
		return ActionPumpForward
	case "pump_on_rev":
		return ActionPumpReverse
	case "pump_off":
		return ActionPumpOff
	case "free_reward":
		return ActionFreeReward
	case "session_start":
		return ActionSessionStart
	case "session_quit":
		return ActionSessionQuit
	}

	switch cmd.Label {
	case "go_stim":
		subj.GoSet = []byte(cmd.Value)
		return ActionNone
	case "nogo_stim":
		subj.NogoSet = []byte(cmd.Value)
		return ActionNone
	case "go_stim_alt":
		subj.GoAlt = []byte(cmd.Value)
		return ActionNone
	case "nogo_stim_alt":
		subj.NogoAlt = []byte(cmd.Value)
		return ActionNone
	}

	n, err := strconv.Atoi(cmd.Value)
	if err != nil || n < 0 {
		sink.Error(fmt.Sprintf("BadVal %s=%s", cmd.Label, cmd.Value))
		return ActionNone
	}

	switch cmd.Label {
	case "free_hits":
		subj.FreeHits = n
	case "mean_iti":
		subj.MeanITISec = n
		subj.MaxITISec = (n*9 + 1) / 2
	case "max_iti":
		subj.MaxITISec = n
	case "prob_go":
		subj.ProbGo = n
	case "max_go_row":
		subj.MaxGoRow = n
	case "max_nogo_row":
		subj.MaxNogoRow = n
	case "max_rt":
		subj.MaxRTMS = int64(n)
	case "max_mt":
		subj.MaxMTMS = int64(n)
	case "stim_dur":
		subj.StimDurMS = int64(n)
	case "flag_rep_fa":
		subj.RepeatFalseAlarms = n != 0
	case "flag_lick_train":
		subj.LickTraining = n != 0
	case "free_fluid_timeout":
		subj.FreeRewardTimeoutMS = int64(n)
	case "win_crit":
		subj.WinCriterion = n
	case "win_dur":
		if n > MaxWindowLength {
			sink.Error(fmt.Sprintf("WinDurClamp %d>%d", n, MaxWindowLength))
			n = MaxWindowLength
		}
		subj.WinLength = n
	case "reward_width":
		rew.PulseWidthMS = int64(n)
	case "reward_interpulse":
		rew.InterPulseMS = int64(n)
	case "reward_num":
		rew.PulseCount = n
	case "track_res":
		subj.TrackerResolutionMS = int64(n)
	default:
		sink.Error(fmt.Sprintf("BadCmd %s=%s", cmd.Label, cmd.Value))
	}
	return ActionNone
}

// #endregion apply

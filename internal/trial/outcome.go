package trial

// #region outcome

// Outcome classifies one completed trial.
type Outcome int

const (
	Hit Outcome = iota
	FalseAlarm
	Miss
	CorrectRejection
	Aborted
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case FalseAlarm:
		return "false_alarm"
	case Miss:
		return "miss"
	case CorrectRejection:
		return "correct_rejection"
	default:
		return "aborted"
	}
}

// Code returns the one-byte result code used in host notifications.
func (o Outcome) Code() byte {
	switch o {
	case Hit:
		return 'H'
	case FalseAlarm:
		return 'F'
	case Miss:
		return 'M'
	case CorrectRejection:
		return 'C'
	default:
		return 'A'
	}
}

// Correct reports whether the outcome counts toward the reversal criterion.
func (o Outcome) Correct() bool {
	return o == Hit || o == CorrectRejection
}

// Response codes paired with the result code in the outcome notification.
const (
	ResponseLick byte = 'L' // the subject licked
	ResponseNone byte = 'N' // disruption or an expired window, no lick
)

// #endregion outcome

package window

// #region phase

// Phase is the lifecycle tag of a timed window. A window is in exactly one
// phase at a time, which rules out the invalid armed+active combination.
type Phase int

const (
	// Idle means the window is neither scheduled nor in effect.
	Idle Phase = iota
	// Armed means the window will start at StartMS.
	Armed
	// Active means the window is in effect until EndMS.
	Active
)

// String returns the phase name for logs and test failures.
func (p Phase) String() string {
	switch p {
	case Armed:
		return "armed"
	case Active:
		return "active"
	default:
		return "idle"
	}
}

// #endregion phase

// #region window

// Window is a reusable armed/active interval. It is used for the stimulus,
// the inter-trial interval, the reaction- and movement-time windows, and
// individual reward pulses. Instances are reset in place, never reallocated.
type Window struct {
	phase   Phase
	startMS int64
	endMS   int64
}

// Arm schedules the window to start at startMS.
func (w *Window) Arm(startMS int64) {
	w.phase = Armed
	w.startMS = startMS
	w.endMS = 0
}

// Activate puts the window in effect until endMS.
func (w *Window) Activate(endMS int64) {
	w.phase = Active
	w.endMS = endMS
}

// Disarm returns the window to Idle. This is the only cancellation primitive.
func (w *Window) Disarm() {
	w.phase = Idle
	w.startMS = 0
	w.endMS = 0
}

// Armed reports whether the window is scheduled but not yet in effect.
func (w *Window) Armed() bool { return w.phase == Armed }

// Active reports whether the window is currently in effect.
func (w *Window) Active() bool { return w.phase == Active }

// Idle reports whether the window is neither armed nor active.
func (w *Window) Idle() bool { return w.phase == Idle }

// StartMS returns the scheduled start. Meaningful only while Armed.
func (w *Window) StartMS() int64 { return w.startMS }

// EndMS returns the scheduled end. Meaningful only while Active.
func (w *Window) EndMS() int64 { return w.endMS }

// Due reports whether an armed window has reached its start time.
func (w *Window) Due(nowMS int64) bool {
	return w.phase == Armed && nowMS >= w.startMS
}

// Expired reports whether an active window has reached its end time.
func (w *Window) Expired(nowMS int64) bool {
	return w.phase == Active && nowMS >= w.endMS
}

// #endregion window

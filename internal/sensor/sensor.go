package sensor

// #region transition

// Kind tags a level change as an engagement or a release.
type Kind int

const (
	// Entry is a rising transition: the subject engaged the sensor.
	Entry Kind = iota
	// Exit is a falling transition: the subject released the sensor.
	Exit
)

// String returns the transition name for logs and test failures.
func (k Kind) String() string {
	if k == Entry {
		return "entry"
	}
	return "exit"
}

// Transition is a single level change with its timestamp.
type Transition struct {
	Kind Kind
	AtMS int64
}

// #endregion transition

// #region channel

// Channel tracks one binary sensor line (nosepoke or lick). There is no
// hardware debouncing: false-brief engagements are rejected by the
// orchestrator's foreperiod logic, not here.
type Channel struct {
	name         string
	engaged      bool
	lastChangeMS int64
}

// NewChannel creates a disengaged channel with the given name.
func NewChannel(name string) *Channel {
	return &Channel{name: name}
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// Engaged reports the last observed level.
func (c *Channel) Engaged() bool { return c.engaged }

// LastChangeMS returns the timestamp of the most recent flip.
func (c *Channel) LastChangeMS() int64 { return c.lastChangeMS }

// Poll compares the raw level against the stored state. On a change it flips
// engaged, stamps lastChangeMS, and returns the transition; otherwise it
// returns false. The flip and the timestamp update are inseparable.
func (c *Channel) Poll(level bool, nowMS int64) (Transition, bool) {
	if level == c.engaged {
		return Transition{}, false
	}
	c.engaged = level
	c.lastChangeMS = nowMS
	kind := Exit
	if level {
		kind = Entry
	}
	return Transition{Kind: kind, AtMS: nowMS}, true
}

// ForceRelease closes out an engaged channel at session stop, emitting the
// exit that the hardware will never deliver. No-op when already disengaged.
func (c *Channel) ForceRelease(nowMS int64) (Transition, bool) {
	if !c.engaged {
		return Transition{}, false
	}
	c.engaged = false
	c.lastChangeMS = nowMS
	return Transition{Kind: Exit, AtMS: nowMS}, true
}

// #endregion channel

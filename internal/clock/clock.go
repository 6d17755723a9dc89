package clock

import "time"

// #region clock

// Clock supplies a non-decreasing millisecond timestamp. All trial timing is
// relative to it; wall-clock time is never consulted by the core.
type Clock interface {
	NowMillis() int64
}

// #endregion clock

// #region monotonic

// Monotonic is the production clock, counting milliseconds since Start.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a clock anchored at the current instant.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// NowMillis returns milliseconds elapsed since the clock was created.
func (m *Monotonic) NowMillis() int64 {
	return time.Since(m.start).Milliseconds()
}

// #endregion monotonic

// #region fake

// Fake is a hand-advanced clock for tests and replay.
type Fake struct {
	now int64
}

// NewFake creates a fake clock starting at the given millisecond.
func NewFake(start int64) *Fake {
	return &Fake{now: start}
}

// NowMillis returns the current fake time.
func (f *Fake) NowMillis() int64 {
	return f.now
}

// Advance moves the clock forward by d milliseconds.
func (f *Fake) Advance(d int64) {
	f.now += d
}

// Set jumps the clock to t. Panics if t would move time backwards.
func (f *Fake) Set(t int64) {
	if t < f.now {
		panic("clock: fake clock moved backwards")
	}
	f.now = t
}

// #endregion fake

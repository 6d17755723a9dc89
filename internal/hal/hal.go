package hal

// #region interfaces

// Line is one digital output (pump, sync pulse, house light).
type Line interface {
	Set(on bool)
}

// StimulusPlayer drives the stimulus output. Play starts the stimulus for the
// given identity; Silence stops whatever is playing. Tone synthesis detail is
// the implementation's business.
type StimulusPlayer interface {
	Play(ident byte)
	Silence()
}

// Inputs reads the raw sensor levels and the position-tracker bitmask.
type Inputs interface {
	Nosepoke() bool
	Lick() bool
	PositionMask() int64
}

// #endregion interfaces

// #region bank

// Bank groups every output the controller owns so session stop can drive
// them all low in one place.
type Bank struct {
	Stim    StimulusPlayer
	Pump    Line // syringe pump, forward
	PumpRev Line // syringe pump, reverse
	SyncA   Line
	SyncB   Line
}

// AllLow silences the stimulus and drives every line low.
func (b *Bank) AllLow() {
	b.Stim.Silence()
	b.Pump.Set(false)
	b.PumpRev.Set(false)
	b.SyncA.Set(false)
	b.SyncB.Set(false)
}

// #endregion bank

// #region sim

// SimLine is an in-memory Line recording its level and flip count.
type SimLine struct {
	Level bool
	Flips int
}

// Set records the new level.
func (l *SimLine) Set(on bool) {
	if on != l.Level {
		l.Flips++
	}
	l.Level = on
}

// SimPlayer is an in-memory StimulusPlayer recording what is playing.
type SimPlayer struct {
	Playing bool
	Ident   byte
	Starts  int
}

// Play records the stimulus identity as playing.
func (p *SimPlayer) Play(ident byte) {
	p.Playing = true
	p.Ident = ident
	p.Starts++
}

// Silence stops the recorded stimulus.
func (p *SimPlayer) Silence() {
	p.Playing = false
}

// SimInputs is a settable Inputs for tests and the replay harness.
type SimInputs struct {
	NosepokeLevel bool
	LickLevel     bool
	Mask          int64
}

func (s *SimInputs) Nosepoke() bool     { return s.NosepokeLevel }
func (s *SimInputs) Lick() bool         { return s.LickLevel }
func (s *SimInputs) PositionMask() int64 { return s.Mask }

// SimOutputs bundles the simulated lines behind a Bank for inspection.
type SimOutputs struct {
	Stim    *SimPlayer
	Pump    *SimLine
	PumpRev *SimLine
	SyncA   *SimLine
	SyncB   *SimLine
}

// SimBank returns a Bank wired entirely to simulated outputs.
func SimBank() (*Bank, *SimOutputs) {
	out := &SimOutputs{
		Stim:    &SimPlayer{},
		Pump:    &SimLine{},
		PumpRev: &SimLine{},
		SyncA:   &SimLine{},
		SyncB:   &SimLine{},
	}
	bank := &Bank{
		Stim:    out.Stim,
		Pump:    out.Pump,
		PumpRev: out.PumpRev,
		SyncA:   out.SyncA,
		SyncB:   out.SyncB,
	}
	return bank, out
}

// #endregion sim

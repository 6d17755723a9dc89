package events

// Event labels shared by the core and the host transport. Labels are short
// because the host link is a byte-counted serial line; the host side expands
// them for display.
const (
	LabelNosepokeEntry = "NpEnt"
	LabelNosepokeExit  = "NpExt"
	LabelLickEntry     = "LkEnt"
	LabelLickExit      = "LkExt"

	LabelStimStart   = "StmOn"
	LabelStimStop    = "StmOff"
	LabelStimPlanned = "StmNext"
	LabelStimPlayed  = "StmCur"

	LabelRewardStart    = "RwdOn"
	LabelRewardFinish   = "RwdOff"
	LabelMovementExpiry = "MtOut"

	LabelTrialOutcome = "Trial"
	LabelITI          = "ITI"
	LabelReversal     = "Switch"

	LabelSessionStart = "SesOn"
	LabelSessionEnd   = "SesOff"
	LabelSessionID    = "SesID"

	LabelTracker = "Pos"
	LabelError   = "Err"
	LabelWarning = "Warn"
)

// #region sink

// Sink is the outbound notification boundary between the core and the host.
// The wire encoding (packet framing, byte order) belongs to whoever
// implements it; the core only emits labelled payloads.
type Sink interface {
	// Int emits a label with one integer payload, usually a timestamp.
	Int(label string, value int64)
	// IntPair emits a label with two integer payloads.
	IntPair(label string, a, b int64)
	// Char emits a label with short character data (stimulus identity,
	// response/result codes).
	Char(label string, data ...byte)
	// Error emits an error or warning notification.
	Error(text string)
}

// #endregion sink

// #region recorder

// Record is one captured emission, used by tests and the replay harness.
type Record struct {
	Label string
	A, B  int64
	NInts int
	Chars []byte
	Text  string
}

// Recorder is a Sink that appends every emission to an in-memory list.
type Recorder struct {
	Records []Record
}

// Int captures a one-integer emission.
func (r *Recorder) Int(label string, value int64) {
	r.Records = append(r.Records, Record{Label: label, A: value, NInts: 1})
}

// IntPair captures a two-integer emission.
func (r *Recorder) IntPair(label string, a, b int64) {
	r.Records = append(r.Records, Record{Label: label, A: a, B: b, NInts: 2})
}

// Char captures a character emission.
func (r *Recorder) Char(label string, data ...byte) {
	r.Records = append(r.Records, Record{Label: label, Chars: append([]byte(nil), data...)})
}

// Error captures an error emission under the Err label.
func (r *Recorder) Error(text string) {
	r.Records = append(r.Records, Record{Label: LabelError, Text: text})
}

// ByLabel returns the captured records carrying the given label, in order.
func (r *Recorder) ByLabel(label string) []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Label == label {
			out = append(out, rec)
		}
	}
	return out
}

// Count returns how many records carry the given label.
func (r *Recorder) Count(label string) int {
	return len(r.ByLabel(label))
}

// #endregion recorder

// #region discard

// Discard is a Sink that drops everything. Useful when a component is run
// without a host link.
type Discard struct{}

func (Discard) Int(string, int64)          {}
func (Discard) IntPair(string, int64, int64) {}
func (Discard) Char(string, ...byte)       {}
func (Discard) Error(string)               {}

// #endregion discard

package serial

import (
	"bytes"
	"io"
	"testing"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
)

func TestIntPacketLayout(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.Int("NpEnt", 0x01020304)

	want := []byte{'<', 'N', 'p', 'E', 'n', 't', '|', 0x01, 0x02, 0x03, 0x04, '>'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("frame % x, want % x", buf.Bytes(), want)
	}
}

func TestIntPairPacketLayout(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.IntPair("Pos", 1, 0xFF)

	want := []byte{'<', 'P', 'o', 's', '~', 0, 0, 0, 1, 0, 0, 0, 0xFF, '>'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("frame % x, want % x", buf.Bytes(), want)
	}
}

func TestCharPacketLayout(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.Char("Trial", 'L', 'H')

	want := []byte("<Trial@LH>")
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("frame %q, want %q", buf.Bytes(), want)
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.Int("SesOn", 123456)
	enc.IntPair("ITI", 2000, 12)
	enc.Char("StmNext", 'G', '1')
	enc.Error("BadCmd bogus=1")

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))

	p, err := dec.Next()
	if err != nil {
		t.Fatalf("first packet: %v", err)
	}
	if p.Label != "SesOn" || p.Type != PacketInt || p.A != 123456 {
		t.Fatalf("got %+v", p)
	}

	p, err = dec.Next()
	if err != nil {
		t.Fatalf("second packet: %v", err)
	}
	if p.Label != "ITI" || p.Type != PacketInt2 || p.A != 2000 || p.B != 12 {
		t.Fatalf("got %+v", p)
	}

	p, err = dec.Next()
	if err != nil {
		t.Fatalf("third packet: %v", err)
	}
	if p.Label != "StmNext" || p.Type != PacketChar || string(p.Data) != "G1" {
		t.Fatalf("got %+v", p)
	}

	p, err = dec.Next()
	if err != nil {
		t.Fatalf("fourth packet: %v", err)
	}
	if p.Label != events.LabelError || string(p.Data) != "BadCmd bogus=1" {
		t.Fatalf("got %+v", p)
	}

	if _, err = dec.Next(); err != io.EOF {
		t.Fatalf("expected EOF after last packet, got %v", err)
	}
}

func TestDecoderSkipsStrayBytes(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("xxA")
	NewEncoder(&buf).Char("cmd", 'y')

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	p, err := dec.Next()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Label != "cmd" || string(p.Data) != "y" {
		t.Fatalf("got %+v", p)
	}
	if dec.Stray != 3 {
		t.Fatalf("stray count %d, want 3", dec.Stray)
	}
}

func TestDecoderErrsOnTruncatedInt(t *testing.T) {
	frame := []byte{'<', 'T', '|', 0x00, 0x01}
	dec := NewDecoder(bytes.NewReader(frame))
	if _, err := dec.Next(); err == nil {
		t.Fatal("expected error for truncated integer payload")
	}
}

func TestIntPayloadMayContainMarkerBytes(t *testing.T) {
	// A binary payload byte equal to '>' must not terminate the frame early.
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Int("T", int64('>'))

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	p, err := dec.Next()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.A != int64('>') {
		t.Fatalf("payload %d, want %d", p.A, int64('>'))
	}
}

func TestHandshake(t *testing.T) {
	var out bytes.Buffer
	in := &scriptedBytes{}

	now := int64(0)
	wait := func(untilMS int64) {
		now = untilMS
		// Host answers after the second announce.
		if now >= 1000 {
			in.queue = append(in.queue, 'x', HandshakeAck)
		}
	}

	Handshake(in, &out, func() int64 { return now }, wait)

	if out.Len() < 2 {
		t.Fatalf("announced %d times, want at least 2", out.Len())
	}
	for _, b := range out.Bytes() {
		if b != HandshakeSend {
			t.Fatalf("unexpected announce byte %q", b)
		}
	}
}

type scriptedBytes struct {
	queue []byte
}

func (s *scriptedBytes) ReadByte() (byte, error) {
	if len(s.queue) == 0 {
		return 0, io.EOF
	}
	b := s.queue[0]
	s.queue = s.queue[1:]
	return b, nil
}

// Package serial implements the host link's packet framing. The layout is
// shared with the host monitor: a packet is `<label` followed by a type
// marker, the payload, and `>`. Integer payloads are big-endian 32-bit
// values; character payloads are raw bytes.
package serial

import (
	"fmt"
	"io"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/events"
)

// Packet framing markers.
const (
	PacketStart = '<'
	PacketInt   = '|' // one 32-bit integer payload
	PacketInt2  = '~' // two 32-bit integer payloads
	PacketChar  = '@' // character payload
	PacketEnd   = '>'
)

// Handshake characters: the controller announces with Send until the host
// answers with Ack.
const (
	HandshakeSend = 'A'
	HandshakeAck  = 'P'
)

const handshakeRetryMS = 500

// #region encoder

// Encoder frames outbound events onto a writer. It implements events.Sink.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder over w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func writeInt32(buf []byte, v int64) []byte {
	u := uint32(v)
	return append(buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

// Int frames a one-integer packet.
func (e *Encoder) Int(label string, value int64) {
	buf := make([]byte, 0, len(label)+8)
	buf = append(buf, PacketStart)
	buf = append(buf, label...)
	buf = append(buf, PacketInt)
	buf = writeInt32(buf, value)
	buf = append(buf, PacketEnd)
	e.w.Write(buf)
}

// IntPair frames a two-integer packet.
func (e *Encoder) IntPair(label string, a, b int64) {
	buf := make([]byte, 0, len(label)+12)
	buf = append(buf, PacketStart)
	buf = append(buf, label...)
	buf = append(buf, PacketInt2)
	buf = writeInt32(buf, a)
	buf = writeInt32(buf, b)
	buf = append(buf, PacketEnd)
	e.w.Write(buf)
}

// Char frames a character packet.
func (e *Encoder) Char(label string, data ...byte) {
	buf := make([]byte, 0, len(label)+len(data)+4)
	buf = append(buf, PacketStart)
	buf = append(buf, label...)
	buf = append(buf, PacketChar)
	buf = append(buf, data...)
	buf = append(buf, PacketEnd)
	e.w.Write(buf)
}

// Error frames an error packet under the Err label.
func (e *Encoder) Error(text string) {
	e.Char(events.LabelError, []byte(text)...)
}

var _ events.Sink = (*Encoder)(nil)

// #endregion encoder

// #region packet

// Packet is one decoded frame.
type Packet struct {
	Label string
	Type  byte // PacketInt, PacketInt2, or PacketChar
	A, B  int64
	Data  []byte
}

// #endregion packet

// #region decoder

// Decoder parses framed packets from a byte stream. Stray bytes outside a
// frame are skipped and counted.
type Decoder struct {
	r     io.ByteReader
	Stray int
}

// NewDecoder creates a decoder over r.
func NewDecoder(r io.ByteReader) *Decoder {
	return &Decoder{r: r}
}

func readInt32(r io.ByteReader) (int64, error) {
	var u uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		u = u<<8 | uint32(b)
	}
	return int64(int32(u)), nil
}

// Next reads one packet, skipping noise before the start marker. Returns
// io.EOF when the stream ends cleanly between packets.
func (d *Decoder) Next() (Packet, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return Packet{}, err
		}
		if b == PacketStart {
			break
		}
		d.Stray++
	}

	var p Packet
	label := make([]byte, 0, 8)
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return Packet{}, fmt.Errorf("packet label: %w", err)
		}
		if b == PacketInt || b == PacketInt2 || b == PacketChar {
			p.Type = b
			break
		}
		label = append(label, b)
	}
	p.Label = string(label)

	switch p.Type {
	case PacketInt:
		a, err := readInt32(d.r)
		if err != nil {
			return Packet{}, fmt.Errorf("packet %s int: %w", p.Label, err)
		}
		p.A = a
	case PacketInt2:
		a, err := readInt32(d.r)
		if err != nil {
			return Packet{}, fmt.Errorf("packet %s int pair: %w", p.Label, err)
		}
		b, err := readInt32(d.r)
		if err != nil {
			return Packet{}, fmt.Errorf("packet %s int pair: %w", p.Label, err)
		}
		p.A, p.B = a, b
	case PacketChar:
		for {
			b, err := d.r.ReadByte()
			if err != nil {
				return Packet{}, fmt.Errorf("packet %s char data: %w", p.Label, err)
			}
			if b == PacketEnd {
				return p, nil
			}
			p.Data = append(p.Data, b)
		}
	}

	// Integer packets are fixed width; consume the terminator.
	b, err := d.r.ReadByte()
	if err != nil {
		return Packet{}, fmt.Errorf("packet %s end: %w", p.Label, err)
	}
	if b != PacketEnd {
		return Packet{}, fmt.Errorf("packet %s: expected end marker, got %q", p.Label, b)
	}
	return p, nil
}

// #endregion decoder

// #region handshake

// Handshake announces the controller on the link until the host acknowledges.
// It is one of the deliberately bounded blocking cases: wait must keep
// servicing sensors and the position sampler while blocking. in should
// return an error when no byte is buffered.
func Handshake(in io.ByteReader, out io.Writer, now func() int64, wait func(untilMS int64)) {
	for {
		out.Write([]byte{HandshakeSend})
		wait(now() + handshakeRetryMS)
		for {
			b, err := in.ReadByte()
			if err != nil {
				break
			}
			if b == HandshakeAck {
				wait(now() + handshakeRetryMS)
				return
			}
		}
	}
}

// #endregion handshake

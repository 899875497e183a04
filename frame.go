package insight

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/juju/errors"
	"github.com/temoto/insight/helpers"
)

// Control bytes.
const (
	SOH byte = 0x01 // start of header
	STX byte = 0x02 // start of data
	ETX byte = 0x03 // end of header, end of escaped data
	EOT byte = 0x04 // end of transmission
	ESC byte = 0x1b // escape, legacy data framing only
)

// ProtocolVersion is announced in DefaultPreamble.
const ProtocolVersion = 2

type Framing uint8

const (
	// FramingLength is STX, payload length byte, raw payload.
	FramingLength Framing = iota
	// FramingEscaped is STX, payload with control bytes ESC-prefixed, ETX.
	// For hosts built against the old terminator-delimited format.
	FramingEscaped
)

func (f Framing) String() string {
	switch f {
	case FramingLength:
		return "length"
	case FramingEscaped:
		return "escaped"
	default:
		return fmt.Sprintf("Framing(%d)", uint8(f))
	}
}

func ParseFraming(s string) (Framing, error) {
	switch s {
	case "", "length":
		return FramingLength, nil
	case "escaped", "legacy":
		return FramingEscaped, nil
	}
	return 0, errors.NotValidf("framing=%s", s)
}

// Flusher is implemented by buffered sinks, flushed after every frame.
type Flusher interface {
	Flush() error
}

// DefaultPreamble is a single separator-terminated token:
// protocol version and native byte order of data frame values.
func DefaultPreamble() string {
	return fmt.Sprintf("insight:%d:%s;", ProtocolVersion, NativeOrderTag())
}

func NativeOrderTag() string {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return "le"
	}
	return "be"
}

func IsControl(c byte) bool {
	switch c {
	case SOH, STX, ETX, EOT, ESC:
		return true
	}
	return false
}

func (self *Insight) encodeHeader() []byte {
	var b bytes.Buffer
	b.Grow(2 + len(self.preamble) + len(self.names) + 4*len(self.slots))
	b.WriteByte(SOH)
	fmt.Fprint(&b, self.preamble)
	b.Write(self.names)
	for _, s := range self.slots {
		fmt.Fprintf(&b, "%s%c", s.typ.Tag(), Separator)
	}
	b.WriteByte(ETX)
	return b.Bytes()
}

// encodeRaw copies current values into the raw scratch buffer.
func (self *Insight) encodeRaw() []byte {
	b := self.raw[:0]
	for _, s := range self.slots {
		b = appendValue(b, s.ref)
	}
	return b
}

func (self *Insight) encodeData() []byte {
	raw := self.encodeRaw()
	b := self.frame[:0]
	b = append(b, STX)
	switch self.framing {
	case FramingEscaped:
		var n int
		b, n = appendEscaped(b, raw)
		b = append(b, ETX)
		self.stat.Escaped += uint32(n)
	default:
		b = append(b, byte(len(raw)))
		b = append(b, raw...)
	}
	return b
}

func appendEscaped(dst, raw []byte) ([]byte, int) {
	n := 0
	for _, c := range raw {
		if IsControl(c) {
			dst = append(dst, ESC)
			n++
		}
		dst = append(dst, c)
	}
	return dst, n
}

func appendValue(b []byte, ref interface{}) []byte {
	switch p := ref.(type) {
	case *bool:
		if *p {
			return append(b, 1)
		}
		return append(b, 0)
	case *uint8:
		return append(b, *p)
	case *uint16:
		return binary.NativeEndian.AppendUint16(b, *p)
	case *uint32:
		return binary.NativeEndian.AppendUint32(b, *p)
	case *uint64:
		return binary.NativeEndian.AppendUint64(b, *p)
	case *int8:
		return append(b, byte(*p))
	case *int16:
		return binary.NativeEndian.AppendUint16(b, uint16(*p))
	case *int32:
		return binary.NativeEndian.AppendUint32(b, uint32(*p))
	case *int64:
		return binary.NativeEndian.AppendUint64(b, uint64(*p))
	case *float32:
		return binary.NativeEndian.AppendUint32(b, math.Float32bits(*p))
	case *float64:
		return binary.NativeEndian.AppendUint64(b, math.Float64bits(*p))
	}
	panic(fmt.Sprintf("code error insight appendValue type=%T", ref))
}

func (self *Insight) send(b []byte) error {
	if self.sink == nil {
		return ErrNoSink
	}
	var err error
	if len(b) == 1 {
		err = self.sink.WriteByte(b[0])
	} else {
		err = helpers.WriteAll(self.sink, b)
	}
	if err == nil {
		if f, ok := self.sink.(Flusher); ok {
			err = f.Flush()
		}
	}
	if err != nil {
		self.stat.Errors++
		return err
	}
	self.stat.Bytes += uint32(len(b))
	return nil
}

// Package decode is the host side of insight: parses header and data frames
// from a byte stream back into named typed values.
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/insight"
)

var (
	ErrNoLayout       = errors.New("decode: data frame before header")
	ErrLengthMismatch = errors.New("decode: data length does not match header")
	ErrBadHeader      = errors.New("decode: malformed header")
)

type Layout struct {
	Preamble    string
	Order       binary.ByteOrder
	Names       []string
	Types       []insight.Type
	PayloadSize int
}

// ParseHeader accepts header body between SOH and ETX:
// preamble token, then N names, then N type tags, each ';'-terminated.
func ParseHeader(body []byte) (*Layout, error) {
	s := string(body)
	if !strings.HasSuffix(s, string(insight.Separator)) {
		return nil, errors.Annotatef(ErrBadHeader, "no trailing separator header='%s'", s)
	}
	tokens := strings.Split(strings.TrimSuffix(s, string(insight.Separator)), string(insight.Separator))
	rest := tokens[1:]
	if len(rest)%2 != 0 {
		return nil, errors.Annotatef(ErrBadHeader, "odd token count=%d header='%s'", len(rest), s)
	}
	n := len(rest) / 2
	l := &Layout{
		Preamble: tokens[0],
		Order:    parseOrder(tokens[0]),
		Names:    rest[:n],
		Types:    make([]insight.Type, n),
	}
	for i, tag := range rest[n:] {
		t, ok := insight.ParseTag(tag)
		if !ok {
			return nil, errors.Annotatef(ErrBadHeader, "unknown type tag='%s' name=%s", tag, l.Names[i])
		}
		l.Types[i] = t
		l.PayloadSize += t.Size()
	}
	return l, nil
}

// parseOrder reads byte order from "insight:<version>:<le|be>" preamble.
// Unknown preamble defaults to little endian.
func parseOrder(preamble string) binary.ByteOrder {
	if i := strings.LastIndexByte(preamble, ':'); i >= 0 && preamble[i+1:] == "be" {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (self *Layout) Len() int { return len(self.Types) }

// Values decodes data frame payload, one value per variable:
// bool, uint8..uint64, int8..int64, float32, float64.
func (self *Layout) Values(payload []byte) ([]interface{}, error) {
	if len(payload) != self.PayloadSize {
		return nil, errors.Annotatef(ErrLengthMismatch, "length=%d expected=%d", len(payload), self.PayloadSize)
	}
	o := self.Order
	vs := make([]interface{}, len(self.Types))
	for i, t := range self.Types {
		b := payload[:t.Size()]
		payload = payload[t.Size():]
		switch t {
		case insight.TypeBool:
			vs[i] = b[0] != 0
		case insight.TypeUint8:
			vs[i] = b[0]
		case insight.TypeUint16:
			vs[i] = o.Uint16(b)
		case insight.TypeUint32:
			vs[i] = o.Uint32(b)
		case insight.TypeUint64:
			vs[i] = o.Uint64(b)
		case insight.TypeInt8:
			vs[i] = int8(b[0])
		case insight.TypeInt16:
			vs[i] = int16(o.Uint16(b))
		case insight.TypeInt32:
			vs[i] = int32(o.Uint32(b))
		case insight.TypeInt64:
			vs[i] = int64(o.Uint64(b))
		case insight.TypeFloat:
			vs[i] = math.Float32frombits(o.Uint32(b))
		case insight.TypeDouble:
			vs[i] = math.Float64frombits(o.Uint64(b))
		default:
			panic(fmt.Sprintf("code error decode Values type=%s", t))
		}
	}
	return vs, nil
}

// Format renders payload as "name=value" pairs separated by space.
func (self *Layout) Format(payload []byte) (string, error) {
	vs, err := self.Values(payload)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	for i, v := range vs {
		if i != 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", self.Names[i], v)
	}
	return b.String(), nil
}

func (self *Layout) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "preamble=%s vars=%d payload=%d", self.Preamble, self.Len(), self.PayloadSize)
	for i, name := range self.Names {
		fmt.Fprintf(&b, " %s:%s", name, self.Types[i])
	}
	return b.String()
}

package decode

import (
	"bufio"
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/temoto/insight"
)

type Kind uint8

const (
	KindHeader Kind = iota + 1
	KindData
	KindTerminate
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindData:
		return "data"
	case KindTerminate:
		return "terminate"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type Frame struct {
	Kind    Kind
	Layout  *Layout
	Payload []byte // data only, valid until next call
}

// Decoder reads frames from a byte stream. Bytes outside frames are skipped
// and counted, so decoding may start in the middle of a transmission.
type Decoder struct {
	r       *bufio.Reader
	framing insight.Framing
	layout  *Layout
	buf     []byte
	skipped uint64
}

func NewDecoder(r io.Reader, framing insight.Framing) *Decoder {
	return &Decoder{
		r:       bufio.NewReader(r),
		framing: framing,
		buf:     make([]byte, 0, 255),
	}
}

func (self *Decoder) Layout() *Layout { return self.layout }
func (self *Decoder) Skipped() uint64 { return self.skipped }

// Next returns next complete frame. Errors from the reader are returned as is,
// io.EOF included. Data errors (ErrNoLayout, ErrLengthMismatch) consume the frame,
// caller may continue with Next. Compare with errors.Cause.
func (self *Decoder) Next() (Frame, error) {
	for {
		c, err := self.r.ReadByte()
		if err != nil {
			return Frame{}, err
		}
		switch c {
		case insight.SOH:
			return self.header()
		case insight.STX:
			return self.data()
		case insight.EOT:
			self.layout = nil
			return Frame{Kind: KindTerminate}, nil
		default:
			self.skipped++
		}
	}
}

func (self *Decoder) header() (Frame, error) {
	b, err := self.r.ReadBytes(insight.ETX)
	if err != nil {
		return Frame{}, errors.Annotate(err, "decode header")
	}
	l, err := ParseHeader(b[:len(b)-1])
	if err != nil {
		self.layout = nil
		return Frame{}, err
	}
	self.layout = l
	return Frame{Kind: KindHeader, Layout: l}, nil
}

func (self *Decoder) data() (Frame, error) {
	var err error
	switch self.framing {
	case insight.FramingEscaped:
		err = self.readEscaped()
	default:
		err = self.readLength()
	}
	if err != nil {
		return Frame{}, errors.Annotate(err, "decode data")
	}
	if self.layout == nil {
		return Frame{}, ErrNoLayout
	}
	if len(self.buf) != self.layout.PayloadSize {
		return Frame{}, errors.Annotatef(ErrLengthMismatch, "length=%d expected=%d", len(self.buf), self.layout.PayloadSize)
	}
	return Frame{Kind: KindData, Layout: self.layout, Payload: self.buf}, nil
}

func (self *Decoder) readLength() error {
	n, err := self.r.ReadByte()
	if err != nil {
		return err
	}
	self.buf = self.buf[:n]
	_, err = io.ReadFull(self.r, self.buf)
	return err
}

func (self *Decoder) readEscaped() error {
	self.buf = self.buf[:0]
	for {
		c, err := self.r.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case insight.ETX:
			return nil
		case insight.ESC:
			if c, err = self.r.ReadByte(); err != nil {
				return err
			}
		}
		if len(self.buf) >= insight.MaxPayload {
			return errors.Annotatef(ErrLengthMismatch, "escaped frame over %d", insight.MaxPayload)
		}
		self.buf = append(self.buf, c)
	}
}

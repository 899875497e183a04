// Package tele forwards insight frames to MQTT, one message per frame.
// Header is retained so late subscribers can decode data immediately.
package tele

import (
	"github.com/juju/errors"
	"github.com/temoto/insight"
	"github.com/temoto/insight/config"
)

const (
	SuffixHeader = "header"
	SuffixData   = "data"
	SuffixOnline = "online"

	maxFrame = 512
)

var ErrFrameOverflow = errors.New("tele: frame buffer overflow")

type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// Sink collects one frame between Flush calls.
type Sink struct {
	pub         Publisher
	topicHeader string
	topicData   string
	buf         []byte
	overflow    bool
}

var _ insight.Sink = &Sink{}
var _ insight.Flusher = &Sink{}

func NewSink(pub Publisher, c config.Tele) *Sink {
	return &Sink{
		pub:         pub,
		topicHeader: c.Topic(SuffixHeader),
		topicData:   c.Topic(SuffixData),
		buf:         make([]byte, 0, maxFrame),
	}
}

func (self *Sink) Write(p []byte) (int, error) {
	if len(self.buf)+len(p) > cap(self.buf) {
		self.overflow = true
		return 0, ErrFrameOverflow
	}
	self.buf = append(self.buf, p...)
	return len(p), nil
}

func (self *Sink) WriteByte(c byte) error {
	_, err := self.Write([]byte{c})
	return err
}

// Flush publishes collected frame. Terminate also clears retained header.
func (self *Sink) Flush() error {
	frame := self.buf
	overflow := self.overflow
	self.buf = self.buf[:0]
	self.overflow = false
	if overflow {
		return ErrFrameOverflow
	}
	if len(frame) == 0 {
		return nil
	}
	// publisher may hold payload after return
	payload := append([]byte(nil), frame...)

	switch payload[0] {
	case insight.SOH:
		return errors.Annotate(self.pub.Publish(self.topicHeader, true, payload), "tele header")
	case insight.EOT:
		if err := self.pub.Publish(self.topicData, false, payload); err != nil {
			return errors.Annotate(err, "tele terminate")
		}
		return errors.Annotate(self.pub.Publish(self.topicHeader, true, nil), "tele clear header")
	default:
		return errors.Annotate(self.pub.Publish(self.topicData, false, payload), "tele data")
	}
}

// Package insight streams a fixed set of live variables to a host
// as compact binary frames over any byte sink, typically a serial port.
//
// Usage: Add variables while disabled, Enable (sends the header once),
// then call Tick from the main loop with a millisecond clock.
// Not safe for concurrent use.
package insight

import (
	"io"

	"github.com/juju/errors"
	"github.com/temoto/insight/log2"
)

const DefaultPeriodMs = 100

var (
	ErrEmpty    = errors.New("insight: nothing registered")
	ErrNoSink   = errors.New("insight: sink is not set")
	ErrDisabled = errors.New("insight: transmission is not enabled")
)

// Sink receives encoded frames.
type Sink interface {
	io.Writer
	io.ByteWriter
}

type Stat struct {
	Headers    uint32
	Frames     uint32
	Terminates uint32
	Bytes      uint32
	Escaped    uint32
	Errors     uint32
}

type Insight struct {
	log  *log2.Log
	sink Sink

	enabled  bool
	paused   bool
	syncNext bool
	lastTick uint32
	period   uint32

	preamble string
	framing  Framing

	slots   []slot
	names   []byte
	payload int

	raw   [MaxPayload]byte
	frame [2*MaxPayload + 2]byte
	stat  Stat
}

func New(sink Sink, limits Limits) *Insight {
	limits = limits.normalize()
	return &Insight{
		sink:     sink,
		period:   DefaultPeriodMs,
		preamble: DefaultPreamble(),
		slots:    make([]slot, 0, limits.MaxSlots),
		names:    make([]byte, 0, limits.NameBufferSize),
	}
}

func (self *Insight) SetLog(log *log2.Log)    { self.log = log }
func (self *Insight) SetSink(sink Sink)       { self.sink = sink }
func (self *Insight) SetPeriod(millis uint32) { self.period = millis }
func (self *Insight) SetPreamble(s string)    { self.preamble = s }
func (self *Insight) SetFraming(f Framing)    { self.framing = f }

func (self *Insight) Sink() Sink       { return self.sink }
func (self *Insight) Period() uint32   { return self.period }
func (self *Insight) Framing() Framing { return self.framing }
func (self *Insight) Enabled() bool    { return self.enabled }
func (self *Insight) Paused() bool     { return self.paused }
func (self *Insight) Stat() Stat       { return self.stat }

func (self *Insight) Limits() Limits {
	return Limits{MaxSlots: cap(self.slots), NameBufferSize: cap(self.names)}
}

// Enable starts (sends header, locks registry) or stops (sends EOT)
// transmission. Repeating the current state is a successful no-op.
// sync=true makes the next Tick transmit without waiting for the period.
func (self *Insight) Enable(state, sync bool) error {
	if self.enabled == state {
		return nil
	}

	if !state {
		self.enabled = false
		self.log.Debugf("insight disable")
		err := self.send([]byte{EOT})
		if err != nil {
			return errors.Annotate(err, "insight terminate")
		}
		self.stat.Terminates++
		return nil
	}

	if len(self.slots) == 0 {
		return ErrEmpty
	}
	if self.sink == nil {
		return ErrNoSink
	}
	if err := self.send(self.encodeHeader()); err != nil {
		return errors.Annotate(err, "insight header")
	}
	self.stat.Headers++
	if sync {
		self.syncNext = true
	}
	self.enabled = true
	self.log.Debugf("insight enable slots=%d payload=%d framing=%s period=%dms",
		len(self.slots), self.payload, self.framing, self.period)
	return nil
}

// Pause gates Tick only. Header and EOT are not sent,
// direct Transmit still works.
func (self *Insight) Pause(state, sync bool) {
	self.paused = state
	if sync {
		self.syncNext = true
	}
}

// Transmit sends one data frame now, ignoring pause and period.
func (self *Insight) Transmit() error {
	if !self.enabled {
		return ErrDisabled
	}
	if err := self.send(self.encodeData()); err != nil {
		return errors.Annotate(err, "insight transmit")
	}
	self.stat.Frames++
	return nil
}

// Tick is the main loop hook. now is a free running millisecond counter,
// overflow is fine. Transmits at most once per call, when more than
// period elapsed since the last tick transmission.
func (self *Insight) Tick(now uint32) (bool, error) {
	if !self.enabled || self.paused {
		return false, nil
	}
	if !self.syncNext && now-self.lastTick <= self.period {
		return false, nil
	}
	self.syncNext = false
	self.lastTick = now
	return true, self.Transmit()
}

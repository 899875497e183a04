package main

import (
	"bytes"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/insight"
	"github.com/temoto/insight/helpers"
	"github.com/temoto/insight/log2"
	"github.com/temoto/insight/uart"
)

// echoSink logs every frame as hex, then forwards to optional port.
type echoSink struct {
	log  *log2.Log
	buf  bytes.Buffer
	port *uart.Port
}

func (self *echoSink) Write(p []byte) (int, error) {
	self.buf.Write(p)
	if self.port == nil {
		return len(p), nil
	}
	return self.port.Write(p)
}

func (self *echoSink) WriteByte(c byte) error {
	_, err := self.Write([]byte{c})
	return err
}

func (self *echoSink) Flush() error {
	self.log.Infof("> %x", self.buf.Bytes())
	self.buf.Reset()
	if self.port == nil {
		return nil
	}
	return self.port.Flush()
}

type session struct {
	in    *insight.Insight
	sink  *echoSink
	log   *log2.Log
	start time.Time
	ptrs  []interface{}
	byKey map[string]interface{}
}

func newSession(port *uart.Port, log *log2.Log) *session {
	sink := &echoSink{log: log, port: port}
	in := insight.New(sink, insight.DefaultLimits())
	in.SetLog(log)
	return &session{
		in:    in,
		sink:  sink,
		log:   log,
		start: time.Now(),
		byKey: make(map[string]interface{}),
	}
}

func (self *session) add(t insight.Type, name string) error {
	ptr := newValue(t)
	if err := self.in.Add(ptr, name); err != nil {
		return errors.Annotatef(err, "add name=%s", name)
	}
	self.ptrs = append(self.ptrs, ptr)
	self.byKey[name] = ptr
	return nil
}

func (self *session) set(name, value string) error {
	ptr, ok := self.byKey[name]
	if !ok {
		return errors.NotFoundf("variable name=%s", name)
	}
	return errors.Annotatef(setValue(ptr, value), "set name=%s", name)
}

func (self *session) reset() error {
	if err := self.in.Reset(); err != nil {
		return err
	}
	self.ptrs = nil
	self.byKey = make(map[string]interface{})
	return nil
}

func (self *session) tick() error {
	now := helpers.Millis32(self.start, time.Now())
	sent, err := self.in.Tick(now)
	self.log.Infof("tick now=%d sent=%t", now, sent)
	return err
}

func (self *session) show() error {
	self.log.Infof("enabled=%t paused=%t period=%dms framing=%s payload=%d/%d",
		self.in.Enabled(), self.in.Paused(), self.in.Period(), self.in.Framing(), self.in.PayloadSize(), insight.MaxPayload)
	for i, v := range self.in.Layout() {
		self.log.Infof("%d %s:%s = %v", i, v.Name, v.Type, valueOf(self.ptrs[i]))
	}
	return nil
}

func (self *session) stat() error {
	s := self.in.Stat()
	self.log.Infof("headers=%d frames=%d terminates=%d bytes=%d escaped=%d errors=%d",
		s.Headers, s.Frames, s.Terminates, s.Bytes, s.Escaped, s.Errors)
	return nil
}

func (self *session) close() {
	if err := self.in.Enable(false, false); err != nil {
		self.log.Error(errors.ErrorStack(err))
	}
	if self.sink.port != nil {
		if err := self.sink.port.Close(); err != nil {
			self.log.Error(errors.ErrorStack(err))
		}
	}
}

func newValue(t insight.Type) interface{} {
	switch t {
	case insight.TypeBool:
		return new(bool)
	case insight.TypeUint8:
		return new(uint8)
	case insight.TypeUint16:
		return new(uint16)
	case insight.TypeUint32:
		return new(uint32)
	case insight.TypeUint64:
		return new(uint64)
	case insight.TypeInt8:
		return new(int8)
	case insight.TypeInt16:
		return new(int16)
	case insight.TypeInt32:
		return new(int32)
	case insight.TypeInt64:
		return new(int64)
	case insight.TypeFloat:
		return new(float32)
	case insight.TypeDouble:
		return new(float64)
	}
	return nil
}

func setValue(ptr interface{}, s string) error {
	switch p := ptr.(type) {
	case *bool:
		x, err := strconv.ParseBool(s)
		if err == nil {
			*p = x
		}
		return err
	case *float32:
		x, err := strconv.ParseFloat(s, 32)
		if err == nil {
			*p = float32(x)
		}
		return err
	case *float64:
		x, err := strconv.ParseFloat(s, 64)
		if err == nil {
			*p = x
		}
		return err
	}

	t, _ := insight.TypeOf(ptr)
	bits := t.Size() * 8
	switch p := ptr.(type) {
	case *uint8, *uint16, *uint32, *uint64:
		u, err := strconv.ParseUint(s, 0, bits)
		if err != nil {
			return err
		}
		switch p := p.(type) {
		case *uint8:
			*p = uint8(u)
		case *uint16:
			*p = uint16(u)
		case *uint32:
			*p = uint32(u)
		case *uint64:
			*p = u
		}
	case *int8, *int16, *int32, *int64:
		i, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return err
		}
		switch p := p.(type) {
		case *int8:
			*p = int8(i)
		case *int16:
			*p = int16(i)
		case *int32:
			*p = int32(i)
		case *int64:
			*p = i
		}
	default:
		return errors.Errorf("code error setValue type=%T", ptr)
	}
	return nil
}

func valueOf(ptr interface{}) interface{} {
	switch p := ptr.(type) {
	case *bool:
		return *p
	case *uint8:
		return *p
	case *uint16:
		return *p
	case *uint32:
		return *p
	case *uint64:
		return *p
	case *int8:
		return *p
	case *int16:
		return *p
	case *int32:
		return *p
	case *int64:
		return *p
	case *float32:
		return *p
	case *float64:
		return *p
	}
	return nil
}

// Package uart provides byte sinks (and sources for host tools) over serial ports.
package uart

import (
	"bufio"
	"expvar"
	"io"
	"time"

	"github.com/goburrow/serial"
	"github.com/juju/errors"
	"github.com/temoto/insight"
	"github.com/temoto/insight/helpers"
)

const (
	DriverFile   = "file"
	DriverSerial = "serial"

	DefaultTimeout = 200 * time.Millisecond

	bufferSize = 512
)

var (
	statRx = expvar.NewInt("insight.uart.rx")
	statTx = expvar.NewInt("insight.uart.tx")
)

type ErrTimeoutT string

func (e ErrTimeoutT) Error() string { return string(e) }
func (ErrTimeoutT) Timeout() bool   { return true }

const ErrTimeout = ErrTimeoutT("uart read timeout")

type Timeouter interface {
	Timeout() bool
}

func IsTimeout(err error) bool {
	t, ok := errors.Cause(err).(Timeouter)
	return ok && t.Timeout()
}

// Port is a buffered serial port. Writes reach the device on Flush,
// which insight calls after every frame.
type Port struct {
	name string
	rwc  io.ReadWriteCloser
	r    *bufio.Reader
	w    *bufio.Writer
}

var _ insight.Sink = &Port{}
var _ insight.Flusher = &Port{}

func NewPort(name string, rwc io.ReadWriteCloser) *Port {
	return &Port{
		name: name,
		rwc:  rwc,
		r:    bufio.NewReaderSize(helpers.NewStatReader(rwc, statRx, 0), bufferSize),
		w:    bufio.NewWriterSize(helpers.NewStatWriter(rwc, statTx, 0), bufferSize),
	}
}

// Open device with one of drivers: file (linux termios), serial (portable).
// Line settings are 8N1 without flow control.
func Open(driver, device string, baud int) (*Port, error) {
	return OpenTimeout(driver, device, baud, DefaultTimeout)
}

// OpenTimeout is Open with read timeout for the serial driver.
func OpenTimeout(driver, device string, baud int, timeout time.Duration) (*Port, error) {
	if device == "" {
		return nil, errors.NotValidf("uart device empty")
	}
	var rwc io.ReadWriteCloser
	var err error
	switch driver {
	case "", DriverFile:
		rwc, err = openFile(device, baud)
	case DriverSerial:
		rwc, err = serial.Open(&serial.Config{
			Address:  device,
			BaudRate: baud,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  timeout,
		})
	default:
		return nil, errors.NotSupportedf("uart driver=%s", driver)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "uart open driver=%s device=%s baud=%d", driver, device, baud)
	}
	return NewPort(device, rwc), nil
}

func (self *Port) String() string { return self.name }

func (self *Port) Write(p []byte) (int, error) { return self.w.Write(p) }
func (self *Port) WriteByte(c byte) error      { return self.w.WriteByte(c) }

func (self *Port) Flush() error {
	return errors.Annotatef(self.w.Flush(), "uart flush %s", self.name)
}

func (self *Port) Read(p []byte) (int, error) {
	n, err := self.r.Read(p)
	return n, mapReadError(err)
}

func (self *Port) ReadByte() (byte, error) {
	b, err := self.r.ReadByte()
	return b, mapReadError(err)
}

// Close flushes pending output first, close error wins.
func (self *Port) Close() error {
	ferr := self.w.Flush()
	if err := self.rwc.Close(); err != nil {
		return errors.Annotatef(err, "uart close %s", self.name)
	}
	return errors.Annotatef(ferr, "uart close flush %s", self.name)
}

func mapReadError(err error) error {
	if err == serial.ErrTimeout {
		return ErrTimeout
	}
	return err
}

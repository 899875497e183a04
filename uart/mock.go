package uart

import (
	"io"
)

// nullDevice joins separate reader and writer, Close is noop.
type nullDevice struct {
	r io.Reader
	w io.Writer
}

func (self *nullDevice) Read(p []byte) (int, error) {
	if self.r == nil {
		return 0, io.EOF
	}
	return self.r.Read(p)
}

func (self *nullDevice) Write(p []byte) (int, error) {
	if self.w == nil {
		return len(p), nil
	}
	return self.w.Write(p)
}

func (self *nullDevice) Close() error {
	self.r = nil
	self.w = nil
	return nil
}

// NewNullPort is Port over in-memory reader and writer, for tests and stdin/stdout tools.
// nil r reads EOF, nil w discards.
func NewNullPort(r io.Reader, w io.Writer) *Port {
	return NewPort("null", &nullDevice{r: r, w: w})
}

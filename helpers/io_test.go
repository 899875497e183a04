package helpers

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteAll(t *testing.T) {
	t.Parallel()
	buf := bytes.NewBuffer(nil)
	content := []byte("12345678901234567890")
	tw := &throttleWriter{buf, 7}
	n, err := tw.Write(content[:2])
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, buf.Len())
	buf.Reset()
	n, err = tw.Write(content)
	assert.NoError(t, err)
	assert.Equal(t, tw.n, n)
	assert.Equal(t, tw.n, buf.Len())
	buf.Reset()
	err = WriteAll(tw, content)
	assert.NoError(t, err)
	assert.Equal(t, len(content), buf.Len())
}

func TestWriteAllStuck(t *testing.T) {
	t.Parallel()
	tw := &throttleWriter{bytes.NewBuffer(nil), 0}
	assert.Equal(t, io.ErrShortWrite, WriteAll(tw, []byte{1, 2}))
}

func TestMustHex(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []byte{0x02, 0x05, 0x2a}, MustHex("02 05 2a"))
	assert.Panics(t, func() { MustHex("0") })
}

type throttleWriter struct {
	w io.Writer
	n int
}

func (tw *throttleWriter) Write(p []byte) (n int, err error) {
	limit := len(p)
	if limit > tw.n {
		limit = tw.n
	}
	return tw.w.Write(p[:limit])
}

package uart

import (
	"bytes"
	"io"
	"testing"

	"github.com/goburrow/serial"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/insight"
	"github.com/temoto/insight/helpers"
)

func TestPortBuffersUntilFlush(t *testing.T) {
	t.Parallel()
	w := bytes.NewBuffer(nil)
	p := NewNullPort(nil, w)
	require.NoError(t, p.WriteByte(insight.STX))
	_, err := p.Write([]byte{1, 0x2a})
	require.NoError(t, err)
	assert.Equal(t, 0, w.Len())
	require.NoError(t, p.Flush())
	assert.Equal(t, helpers.MustHex("02 01 2a"), w.Bytes())
}

func TestPortInsightFrames(t *testing.T) {
	t.Parallel()
	w := bytes.NewBuffer(nil)
	p := NewNullPort(nil, w)
	in := insight.New(p, insight.DefaultLimits())
	var x uint8 = 7
	require.NoError(t, in.Add(&x, "x"))
	require.NoError(t, in.Enable(true, true))
	sent, err := in.Tick(0)
	require.NoError(t, err)
	assert.True(t, sent)
	require.NoError(t, in.Enable(false, false))

	expect := append([]byte{insight.SOH}, insight.DefaultPreamble()...)
	expect = append(expect, "x;u8;"...)
	expect = append(expect, insight.ETX, insight.STX, 1, 7, insight.EOT)
	assert.Equal(t, expect, w.Bytes())
}

func TestPortRead(t *testing.T) {
	t.Parallel()
	p := NewNullPort(bytes.NewReader([]byte{insight.EOT, 9}), nil)
	b, err := p.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, insight.EOT, b)
	buf := make([]byte, 4)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, buf[:n])
	_, err = p.ReadByte()
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, p.Close())
}

func TestTimeout(t *testing.T) {
	t.Parallel()
	assert.True(t, IsTimeout(ErrTimeout))
	assert.True(t, IsTimeout(errors.Annotate(ErrTimeout, "dump")))
	assert.Equal(t, ErrTimeout, mapReadError(serial.ErrTimeout))
	assert.False(t, IsTimeout(io.EOF))
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()
	_, err := Open("usb", "/dev/null", 9600)
	assert.True(t, errors.IsNotSupported(err), errors.ErrorStack(err))
	_, err = Open(DriverFile, "", 9600)
	assert.True(t, errors.IsNotValid(err))
	_, err = Open(DriverFile, "/nonexistent/tty", 9600)
	assert.Error(t, err)
}

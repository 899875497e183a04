package main

import (
	"bytes"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/insight"
	"github.com/temoto/insight/log2"
	"github.com/temoto/insight/uart"
)

func newTestSession(t testing.TB) (*session, *bytes.Buffer) {
	w := bytes.NewBuffer(nil)
	s := newSession(uart.NewNullPort(nil, w), log2.NewTest(t, log2.LDebug))
	s.in.SetPreamble("t;")
	return s, w
}

func run(t testing.TB, s *session, line string) error {
	a, err := parseLine(s, line)
	require.NoError(t, err, line)
	return a()
}

func TestCliSession(t *testing.T) {
	s, w := newTestSession(t)
	require.NoError(t, run(t, s, "add:u8:x add:i16:y x=0x2a y=-2"))
	require.NoError(t, run(t, s, "enable tx"))
	assert.Equal(t, 2, s.in.Len())

	expect := append([]byte{insight.SOH}, "t;x;y;u8;i16;"...)
	expect = append(expect, insight.ETX, insight.STX, 3, 0x2a)
	yb := int16(-2)
	expect = append(expect, byte(uint16(yb)), byte(uint16(yb)>>8))
	if insight.NativeOrderTag() == "be" {
		expect[len(expect)-2], expect[len(expect)-1] = expect[len(expect)-1], expect[len(expect)-2]
	}
	assert.Equal(t, expect, w.Bytes())

	err := run(t, s, "add:b:z")
	assert.Equal(t, insight.ErrLocked, errors.Cause(err))

	w.Reset()
	require.NoError(t, run(t, s, "pause tick resume+sync tick disable"))
	assert.Equal(t, []byte{insight.STX, 3, 0x2a, w.Bytes()[3], w.Bytes()[4], insight.EOT}, w.Bytes())
	assert.Equal(t, uint32(2), s.in.Stat().Frames)
}

func TestCliLoop(t *testing.T) {
	s, w := newTestSession(t)
	require.NoError(t, run(t, s, "add:b:on on=true enable+sync period=60000"))
	w.Reset()
	require.NoError(t, run(t, s, "loop=3 tx s1"))
	assert.Equal(t, []byte{
		insight.STX, 1, 1,
		insight.STX, 1, 1,
		insight.STX, 1, 1,
	}, w.Bytes())
	assert.Equal(t, uint32(60000), s.in.Period())
}

func TestCliReset(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, run(t, s, "add:u32:a add:d:b reset add:f:c c=1.5 show"))
	assert.Equal(t, []insight.Var{{Name: "c", Type: insight.TypeFloat}}, s.in.Layout())
	assert.Equal(t, float32(1.5), valueOf(s.ptrs[0]))
}

func TestCliErrors(t *testing.T) {
	s, _ := newTestSession(t)
	for _, line := range []string{"add:u128:x", "add:u8", "bogus", "loop=1 loop=2", "period=-1", "sX"} {
		_, err := parseLine(s, line)
		assert.Error(t, err, line)
	}
	require.NoError(t, run(t, s, "add:u8:x"))
	assert.Error(t, run(t, s, "x=256"))
	assert.True(t, errors.IsNotFound(errors.Cause(run(t, s, "nope=1"))))
	assert.Equal(t, insight.ErrDisabled, errors.Cause(run(t, s, "tx")))
}

func TestSetValue(t *testing.T) {
	t.Parallel()
	u8 := new(uint8)
	assert.NoError(t, setValue(u8, "200"))
	assert.Equal(t, uint8(200), *u8)
	assert.Error(t, setValue(u8, "300"))
	assert.Equal(t, uint8(200), *u8, "unchanged on error")
	i64 := new(int64)
	assert.NoError(t, setValue(i64, "-0x10"))
	assert.Equal(t, int64(-16), *i64)
	b := new(bool)
	assert.NoError(t, setValue(b, "1"))
	assert.True(t, *b)
	assert.Error(t, setValue(new(string), "x"))
}

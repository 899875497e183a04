package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/insight"
	"github.com/temoto/insight/config"
	"github.com/temoto/insight/decode"
	"github.com/temoto/insight/uart"
)

func TestDemoStream(t *testing.T) {
	var w bytes.Buffer
	port := uart.NewNullPort(nil, &w)
	in := insight.New(port, insight.DefaultLimits())
	in.SetPeriod(100)
	start := time.Now()
	d := &demo{start: start}
	require.NoError(t, d.register(in))
	require.NoError(t, in.Enable(true, true))
	for i := 0; i < 50; i++ {
		_, err := in.Tick(d.update(start.Add(time.Duration(i) * 10 * time.Millisecond)))
		require.NoError(t, err)
	}
	require.NoError(t, in.Enable(false, false))
	// sync + every >100ms over 490ms
	assert.Equal(t, uint32(5), in.Stat().Frames)

	dec := decode.NewDecoder(&w, insight.FramingLength)
	f, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"uptime_ms", "counter", "sine", "ramp", "odd", "step"}, f.Layout.Names)
	f, err = dec.Next()
	require.NoError(t, err)
	vs, err := f.Layout.Values(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), vs[0])
	assert.Equal(t, uint16(1), vs[1])
	assert.Equal(t, true, vs[4])
}

func TestOpenSinkUnknown(t *testing.T) {
	_, err := openSinkRetry(&config.Config{}, "pigeon", time.Minute)
	assert.True(t, errors.IsNotSupported(err))
}

func TestOpenSinkStdout(t *testing.T) {
	s, err := openSink(&config.Config{}, "stdout")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

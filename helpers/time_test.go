package helpers

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3*time.Second, IntSecondDefault(0, 3*time.Second))
	assert.Equal(t, 5*time.Second, IntSecondDefault(5, 3*time.Second))
	assert.Equal(t, 7*time.Millisecond, IntMillisecondDefault(-1, 7*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, IntMillisecondDefault(250, 7*time.Millisecond))
}

func TestMillis32Wraps(t *testing.T) {
	t.Parallel()
	start := time.Unix(1600000000, 0)
	assert.Equal(t, uint32(1500), Millis32(start, start.Add(1500*time.Millisecond)))
	wrap := start.Add(time.Duration(math.MaxUint32+1+42) * time.Millisecond)
	assert.Equal(t, uint32(42), Millis32(start, wrap))
}

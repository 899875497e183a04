package helpers

import "time"

// IntSecondDefault converts config integer seconds, zero means def.
func IntSecondDefault(x int, def time.Duration) time.Duration {
	if x <= 0 {
		return def
	}
	return time.Duration(x) * time.Second
}

func IntMillisecondDefault(x int, def time.Duration) time.Duration {
	if x <= 0 {
		return def
	}
	return time.Duration(x) * time.Millisecond
}

// Millis32 is a free running millisecond counter since start.
// Wraps around every ~49.7 days, consumers must use unsigned subtraction.
func Millis32(start time.Time, now time.Time) uint32 {
	return uint32(now.Sub(start) / time.Millisecond)
}

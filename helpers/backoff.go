package helpers

import "time"

// Limited exponential backoff for retry delays. Not safe for concurrent use.
// First failure waits Min, every next one K times longer, up to Max.
type Backoff struct {
	next time.Duration

	Min time.Duration
	Max time.Duration
	K   float32
}

// Use scenario:
// for {
//   err := op()
//   if err == nil { break }
//   time.Sleep(backoff.DelayAfter(false))
// }
func (b *Backoff) DelayAfter(success bool) time.Duration {
	b.Update(success)
	return b.next
}

func (b *Backoff) Next() time.Duration { return b.next }

func (b *Backoff) Failure() {
	if b.next == 0 {
		b.next = b.limit(b.Min)
		return
	}
	b.next = b.limit(time.Duration(float32(b.next) * b.K))
}

func (b *Backoff) Reset() { b.next = 0 }

func (b *Backoff) Update(success bool) {
	if success {
		b.Reset()
	} else {
		b.Failure()
	}
}

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	return d
}

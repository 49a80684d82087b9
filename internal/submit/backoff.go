package submit

import (
	"math/rand"
	"time"
)

// Backoff decides how long to wait before the next send attempt.
// attempt is the zero-based index of the attempt that just failed; ok=false gives up.
type Backoff interface {
	Next(attempt uint) (delay time.Duration, ok bool)
}

type ConstantBackoff struct {
	Delay time.Duration
}

func (b ConstantBackoff) Next(uint) (time.Duration, bool) {
	return b.Delay, true
}

// ExponentialBackoff doubles Base per attempt up to Max and adds up to Jitter of random delay.
// MaxAttempts of zero leaves the attempt limit to the submitter.
type ExponentialBackoff struct {
	Base        time.Duration
	Max         time.Duration
	Jitter      time.Duration
	MaxAttempts uint

	rand func(n int64) int64
}

func (b ExponentialBackoff) Next(attempt uint) (time.Duration, bool) {
	if b.MaxAttempts > 0 && attempt+1 >= b.MaxAttempts {
		return 0, false
	}

	delay := b.Base
	for i := uint(0); i < attempt && (b.Max == 0 || delay < b.Max); i++ {
		delay *= 2
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}

	if b.Jitter > 0 {
		r := b.rand
		if r == nil {
			r = rand.Int63n
		}
		delay += time.Duration(r(int64(b.Jitter)))
	}
	return delay, true
}

// NoRetry gives up after the first attempt.
type NoRetry struct{}

func (NoRetry) Next(uint) (time.Duration, bool) {
	return 0, false
}

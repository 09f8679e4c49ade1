package syncer

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy computes the delay before retry attempt n (0-based):
//
//	delay(n) = min(MaxDelay, BaseDelay * Multiplier^n)
//
// optionally multiplied by a jitter factor drawn uniformly from [0.9, 1.0]
// so simultaneous failed clients do not retry in lockstep.
type RetryPolicy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	MaxRetries int
	Jitter     bool
}

// DefaultRetryPolicy mirrors the backend client defaults: 1s base, x2
// growth capped at 30s, three attempts, jittered.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		MaxRetries: 3,
		Jitter:     true,
	}
}

// Delay returns the wait before retry attempt n.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if max := float64(p.MaxDelay); d > max {
		d = max
	}
	if p.Jitter {
		d *= 0.9 + 0.1*rand.Float64()
	}
	return time.Duration(d)
}

package wsconn

import "time"

// Backoff defines the reconnect delay schedule.
type Backoff struct {
	// Base is the delay before the first reconnect attempt.
	Base time.Duration
	// Max caps the delay.
	Max time.Duration
	// Factor multiplies the delay for each further attempt.
	Factor float64
}

// DefaultBackoff is the retry schedule both channels use:
// 3s, 6s, 12s, 24s, then capped at 30s.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:   3 * time.Second,
		Max:    30 * time.Second,
		Factor: 2.0,
	}
}

// Next returns the delay for the given attempt (1-based). The schedule is
// deterministic so callers can assert on it.
func (b Backoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = 3 * time.Second
	}
	max := b.Max
	if max <= 0 {
		max = 30 * time.Second
	}
	factor := b.Factor
	if factor <= 1 {
		factor = 2.0
	}

	wait := base
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(wait) * factor)
		if next > max {
			return max
		}
		wait = next
	}
	if wait > max {
		return max
	}
	return wait
}

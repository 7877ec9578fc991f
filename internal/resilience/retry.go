// Package resilience retries transient failures of the OSM HTTP services.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how often and how patiently a call is retried.
type Policy struct {
	// Attempts is the total number of calls, including the first. 1 disables retries.
	Attempts int

	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max caps every delay, including server-requested Retry-After waits.
	Max time.Duration

	// Multiplier scales the delay after each attempt.
	Multiplier float64

	// Jitter is the random spread as a fraction of the delay (0.25 = ±25%).
	Jitter float64

	// Retryable overrides IsTransient.
	Retryable func(err error) bool

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy suits the public Overpass and Nominatim instances, which
// answer 429 and 504 under load and recover within tens of seconds.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   4,
		Initial:    2 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.25,
	}
}

// WithAttempts returns a copy of p with the attempt count set, if positive.
func (p Policy) WithAttempts(n int) Policy {
	if n > 0 {
		p.Attempts = n
	}
	return p
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out, or ctx ends. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) || attempt == p.Attempts-1 {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.delay(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Initial <= 0 {
		p.Initial = d.Initial
	}
	if p.Max <= 0 {
		p.Max = d.Max
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// delay is the wait before retry attempt+1. A Retry-After hint from the
// server wins over the computed backoff.
func (p Policy) delay(attempt int, err error) time.Duration {
	if ra := RetryAfter(err); ra > 0 {
		return min(ra, p.Max)
	}

	d := float64(p.Initial) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.Max) {
		d = float64(p.Max)
	}
	if p.Jitter > 0 {
		spread := d * p.Jitter
		d += (rand.Float64()*2 - 1) * spread
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Logger returns an OnRetry callback that logs each retry.
func Logger(service string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying request",
			zap.String("service", service),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

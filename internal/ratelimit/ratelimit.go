// Package ratelimit wraps golang.org/x/time/rate for outbound API calls.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket limiter.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows requestsPerMinute with a burst of a tenth of that (at least 1).
// A non-positive rate means unlimited.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return NewWithBurst(float64(requestsPerMinute)/60.0, burst)
}

// NewWithBurst creates a limiter with an explicit per-second rate and burst.
func NewWithBurst(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

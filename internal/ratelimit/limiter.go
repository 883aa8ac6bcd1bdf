// Package ratelimit throttles outbound catalog requests.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every request to one upstream.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a limiter for the named upstream allowing requestsPerSecond with an equal burst.
// A non-positive rate disables limiting.
func New(name string, requestsPerSecond float64) *Limiter {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return NewWithBurst(name, requestsPerSecond, burst)
}

// NewWithBurst creates a limiter with an explicit burst size.
func NewWithBurst(name string, requestsPerSecond float64, burst int) *Limiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		name:    name,
	}
}

// Wait blocks until a request to the upstream may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Name returns the upstream name.
func (l *Limiter) Name() string {
	return l.name
}

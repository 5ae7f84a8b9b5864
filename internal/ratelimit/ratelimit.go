// Package ratelimit enforces the minimum spacing between NVD API requests.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	// KeyedInterval is the request spacing when an NVD API key is supplied.
	KeyedInterval = 600 * time.Millisecond

	// UnkeyedInterval is the request spacing without an API key.
	UnkeyedInterval = 6 * time.Second
)

// Limiter blocks callers so that consecutive Wait returns are never less
// than the configured interval apart. It is an explicit instance owned by
// the API fetcher, not package state, so tests can construct isolated
// limiters with short intervals.
type Limiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// New creates a limiter with the given minimum interval between calls.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// ForAPIKey returns a limiter with the preset interval for the given
// credential: 600ms when a key is present, 6s otherwise.
func ForAPIKey(key string) *Limiter {
	if key != "" {
		return New(KeyedInterval)
	}
	return New(UnkeyedInterval)
}

// Wait blocks until the caller may proceed, or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

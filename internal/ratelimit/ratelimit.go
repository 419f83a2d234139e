// Package ratelimit implements fixed-window request limits for sensitive auth routes.
package ratelimit

import (
	"context"
	"time"
)

const defaultWindow = time.Minute

// Limiter decides whether one more request for key fits into the current window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) Decision
	Close() error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	Count   int
	// RetryAfter is the time left in the current window.
	RetryAfter time.Duration
}

// Remaining returns how many requests are left in the window for limit.
func (d Decision) Remaining(limit int) int {
	if r := limit - d.Count; r > 0 {
		return r
	}
	return 0
}

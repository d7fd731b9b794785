// Package ratelimit implements the sliding-window request counter behind
// the brute-force limiter.  The counter state lives behind Store so that a
// deployment can swap the per-process default for a shared backend.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int           // requests left in the current window after this one
	RetryAfter time.Duration // zero when allowed
}

// Store records a request for key and decides whether it fits in the
// window.  A request is admitted when fewer than limit requests from the
// same key were admitted during the preceding window; rejected requests are
// not recorded.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

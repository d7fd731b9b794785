package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// MemoryStore keeps the timestamps of admitted requests per key in process
// memory.  State is not shared between instances: with N replicas the
// effective limit is N times the configured one.
type MemoryStore struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	sweepP  float64
	horizon time.Duration
	rand    func() float64
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithRand replaces the random source that decides when to sweep.
func WithRand(f func() float64) MemoryOption {
	return func(s *MemoryStore) { s.rand = f }
}

// NewMemoryStore builds a store that, on a sweepProbability share of
// calls, drops every timestamp older than horizon and forgets empty keys.
// The horizon is widened automatically to the longest window seen so a
// sweep never discards state a rule still needs.
func NewMemoryStore(sweepProbability float64, horizon time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		hits:    make(map[string][]time.Time),
		sweepP:  sweepProbability,
		horizon: horizon,
		rand:    rand.Float64,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if window > s.horizon {
		s.horizon = window
	}
	if s.sweepP > 0 && s.rand() < s.sweepP {
		s.sweepLocked(now)
	}

	ts := prune(s.hits[key], now.Add(-window))
	res := Result{Limit: limit}
	if len(ts) >= limit {
		s.hits[key] = ts
		res.RetryAfter = ts[0].Add(window).Sub(now)
		return res, nil
	}
	ts = append(ts, now)
	s.hits[key] = ts
	res.Allowed = true
	res.Remaining = limit - len(ts)
	return res, nil
}

// Sweep drops stale timestamps from every key right away.
func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	s.sweepLocked(now)
	s.mu.Unlock()
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	cutoff := now.Add(-s.horizon)
	for k, ts := range s.hits {
		ts = prune(ts, cutoff)
		if len(ts) == 0 {
			delete(s.hits, k)
			continue
		}
		s.hits[k] = ts
	}
}

// prune drops the leading timestamps at or before cutoff.  ts is sorted.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}

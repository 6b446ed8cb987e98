package ratelimit

import (
	"context"
	"sync"
	"time"
)

// defaultHighWater is the entry count that triggers an expired-window sweep.
const defaultHighWater = 10000

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a process-local fixed-window counter. Entries are swept
// only when the map crosses a high-water mark; there is no background timer,
// so memory can overshoot the mark briefly between sweeps.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*window
	highWater int
	now       func() time.Time
}

// MemoryOption adjusts a MemoryStore at construction.
type MemoryOption func(*MemoryStore)

// WithNow replaces the store's clock. Tests use it to step time forward
// deterministically.
func WithNow(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithHighWater overrides the entry count that triggers a sweep.
func WithHighWater(n int) MemoryOption {
	return func(s *MemoryStore) { s.highWater = n }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		windows:   make(map[string]*window),
		highWater: defaultHighWater,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check counts one request against the key's current window. A missing or
// expired window starts a fresh one with this request as its first hit.
func (s *MemoryStore) Check(_ context.Context, key string, windowDur time.Duration, max int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		if !ok && len(s.windows) >= s.highWater {
			s.sweep(now)
		}
		w = &window{count: 1, resetAt: now.Add(windowDur)}
		s.windows[key] = w
		return Result{Allowed: true, Remaining: max - 1, ResetAt: w.resetAt}, nil
	}

	if w.count >= max {
		return Result{Allowed: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Result{Allowed: true, Remaining: max - w.count, ResetAt: w.resetAt}, nil
}

// sweep drops every expired window in one pass. Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	for key, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, key)
		}
	}
}

// Len reports the live entry count, for tests and diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

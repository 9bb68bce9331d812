package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a per-user sliding window: at most limit operations per
// window. State is process-local and starts empty on every restart, which is
// acceptable for this service; a multi-instance deployment would need an
// external store with atomic increment-and-expire.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	ops    map[int64][]time.Time
}

// NewLimiter creates a Limiter allowing limit operations per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		ops:    map[int64][]time.Time{},
	}
}

// Allow records the operation and reports whether the user is still under
// the limit. Entries older than the window are pruned lazily on each call.
func (l *Limiter) Allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)

	kept := l.ops[userID][:0]
	for _, ts := range l.ops[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.ops[userID] = kept
		return false
	}

	l.ops[userID] = append(kept, now)
	return true
}

package feed

import (
	"sync"
	"time"
)

// Vote mutation budget per user over a rolling window.
const (
	VoteRateLimit  = 30
	VoteRateWindow = time.Minute
)

// RateLimiter counts mutations per user over a sliding window. It counts
// the mutations themselves rather than surviving rows, so toggled-off votes
// still consume budget.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	history map[int][]time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		history: make(map[int][]time.Time),
	}
}

// Allow records one mutation for userID and reports whether it fits the
// budget. A rejected call does not consume budget.
func (r *RateLimiter) Allow(userID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	recent := r.history[userID][:0]
	for _, t := range r.history[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.history[userID] = recent
		return false
	}

	r.history[userID] = append(recent, now)
	return true
}

package server

import (
	"sync"
	"time"
)

// RateLimiter is a global sliding-window limiter over the last minute.
// Callers are not tracked individually.
type RateLimiter struct {
	mu           sync.Mutex
	timestamps   []time.Time
	maxPerMinute int
	now          func() time.Time
}

func NewRateLimiter(maxPerMinute int) *RateLimiter {
	return &RateLimiter{
		timestamps:   make([]time.Time, 0, maxPerMinute),
		maxPerMinute: maxPerMinute,
		now:          time.Now,
	}
}

// Allow records a request and reports whether it fits in the window.
// Rejected requests are not recorded.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-time.Minute)

	valid := r.timestamps[:0]
	for _, ts := range r.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= r.maxPerMinute {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}

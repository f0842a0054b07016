package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Limiter interface {
	// Allow records an attempt for a key and reports whether it is within
	// the limit. When denied, the returned duration says how long until the
	// oldest counted attempt leaves the window.
	Allow(key string) (bool, time.Duration)
}

// RateLimiter is a sliding-window limiter: at most maxAttempts per key
// within the trailing window. Keys are opaque; the bot keys by chat ID, the
// stub server by client IP.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time
}

func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		attempts:    make(map[string][]time.Time),
	}
}

func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := r.now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	var recent []time.Time
	for _, attempt := range r.attempts[key] {
		if attempt.After(cutoff) {
			recent = append(recent, attempt)
		}
	}

	if len(recent) >= r.maxAttempts {
		r.attempts[key] = recent
		retryAfter := r.window - now.Sub(recent[0])
		log.Debug().Str("key", key).Dur("retryAfter", retryAfter).Msg("rate limit reached")
		return false, retryAfter
	}

	r.attempts[key] = append(recent, now)
	return true, 0
}

// Package ratelimit paces feed requests per user so a misbehaving
// client cannot hammer the candidate query tiers.
package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter paces operations per key.
type RateLimiter interface {
	// Allow reports whether an operation for key may proceed now.
	Allow(key string) bool
	// Wait blocks until an operation for key may proceed.
	Wait(key string)
	// Reset clears the pacing state for key.
	Reset(key string)
	// ResetAll clears all pacing state.
	ResetAll()
}

// Limiter enforces a minimum interval between operations per key.
// Keys are user IDs on the feed API; any string key works.
type Limiter struct {
	mu          sync.Mutex
	last        map[string]time.Time
	minInterval time.Duration
}

// New creates a limiter with the given minimum interval between
// operations on the same key. A non-positive interval disables pacing.
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		last:        make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// Allow reports whether an operation may proceed now, recording the
// operation time when it may. Denied calls do not update the timestamp.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.minInterval > 0 {
		if prev, ok := l.last[key]; ok && now.Sub(prev) < l.minInterval {
			return false
		}
	}
	l.last[key] = now
	return true
}

// Wait blocks until the minimum interval since the previous operation
// on key has elapsed, then records the operation.
func (l *Limiter) Wait(key string) {
	l.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if l.minInterval > 0 {
		if prev, ok := l.last[key]; ok {
			if elapsed := now.Sub(prev); elapsed < l.minInterval {
				sleep = l.minInterval - elapsed
			}
		}
	}
	l.last[key] = now.Add(sleep)
	l.mu.Unlock()

	if sleep > 0 {
		time.Sleep(sleep)
	}
}

// Reset clears the pacing state for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.last, key)
}

// ResetAll clears all pacing state.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = make(map[string]time.Time)
}

var _ RateLimiter = (*Limiter)(nil)

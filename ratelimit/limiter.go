// Package ratelimit caps how often an automation rule may execute.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements token bucket rate limiting per rule, with tokens
// refilling at an hourly rate. A rule capped at N executions per hour can
// burst up to N matches and then earns tokens back continuously.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastFill time.Time
	perHour  float64
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow checks whether a rule is allowed to execute and consumes a token if
// so. A maxPerHour of 0 means unlimited (always returns true).
func (l *Limiter) Allow(ruleID string, maxPerHour int) bool {
	if maxPerHour <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.getOrCreateBucket(ruleID, float64(maxPerHour))
	b.refill(l.now())

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Remaining reports how many executions the rule has left in the current
// window without consuming a token.
func (l *Limiter) Remaining(ruleID string, maxPerHour int) int {
	if maxPerHour <= 0 {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.getOrCreateBucket(ruleID, float64(maxPerHour))
	b.refill(l.now())
	return int(b.tokens)
}

// Reset clears the rate limit state for a rule.
func (l *Limiter) Reset(ruleID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, ruleID)
}

func (l *Limiter) getOrCreateBucket(ruleID string, perHour float64) *bucket {
	b, ok := l.buckets[ruleID]
	if !ok {
		b = &bucket{
			tokens:   perHour, // start full
			lastFill: l.now(),
			perHour:  perHour,
		}
		l.buckets[ruleID] = b
	}
	// The cap may have been updated since the bucket was created.
	if b.perHour != perHour {
		b.perHour = perHour
		if b.tokens > perHour {
			b.tokens = perHour
		}
	}
	return b
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastFill).Hours()
	b.tokens += elapsed * b.perHour
	if b.tokens > b.perHour {
		b.tokens = b.perHour // cap at burst size = hourly limit
	}
	b.lastFill = now
}

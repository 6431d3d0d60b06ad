package ratelimit

import (
	"context"
	"sync"
	"time"
)

// bucket is a token bucket refilled continuously at the limiter's rate.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory.
type MemoryLimiter struct {
	maxTokens  float64
	refillRate float64 // tokens per second
	buckets    map[string]*bucket
	now        func() time.Time
	mu         sync.Mutex
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates a limiter allowing burst frames at once and
// perSecond frames per second after that. Non-positive values fall back to
// the DefaultConfig rate.
func NewMemoryLimiter(burst, perSecond int) *MemoryLimiter {
	cfg := Config{Burst: burst, PerSecond: perSecond}.normalized()
	return &MemoryLimiter{
		maxTokens:  float64(cfg.Burst),
		refillRate: float64(cfg.PerSecond),
		buckets:    make(map[string]*bucket),
		now:        time.Now,
	}
}

// Allow takes one token from the key's bucket.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens += elapsed.Seconds() * l.refillRate
		if b.tokens > l.maxTokens {
			b.tokens = l.maxTokens
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Reset drops the key's bucket.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Package ratelimit implements a keyed token-bucket request limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"taskhub/config"
)

// Limiter holds one token bucket per client key. Each bucket starts full at
// capacity and regains one token per refill interval; an empty bucket rejects
// the request and reports how long until the next token.
type Limiter struct {
	capacity    int
	refillEvery time.Duration
	idleTTL     time.Duration

	// now is swapped out by tests for deterministic refill math.
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// New constructs a Limiter from the rate limit configuration section.
func New(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		capacity:    cfg.Capacity,
		refillEvery: cfg.RefillInterval,
		idleTTL:     cfg.IdleTTL,
		now:         time.Now,
		buckets:     make(map[string]*bucket),
	}
}

// Allow takes a token from the key's bucket. When the bucket is empty it
// reports false and the wait until the next token becomes available.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = b
	}

	b.refill(now, l.capacity, l.refillEvery)
	b.lastSeen = now

	if b.tokens == 0 {
		wait := b.lastRefill.Add(l.refillEvery).Sub(now)
		if wait < 0 {
			wait = 0
		}
		return false, wait
	}

	b.tokens--
	return true, 0
}

// refill credits tokens earned since lastRefill. While the bucket is full the
// refill clock stays pinned to now, so the first consume starts a fresh
// refill window.
func (b *bucket) refill(now time.Time, capacity int, every time.Duration) {
	if b.tokens >= capacity {
		b.lastRefill = now
		return
	}
	if every <= 0 {
		b.tokens = capacity
		b.lastRefill = now
		return
	}

	n := int(now.Sub(b.lastRefill) / every)
	if n <= 0 {
		return
	}

	b.tokens += n
	if b.tokens >= capacity {
		b.tokens = capacity
		b.lastRefill = now
		return
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(n) * every)
}

// Run evicts buckets idle for at least the idle TTL until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	if l.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

func (l *Limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Size returns the number of live buckets, for tests and introspection.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
)

type bucketState struct {
	tokens float64
	ts     time.Time
}

// MemoryBucket is a process-local token bucket used when no redis is configured.
type MemoryBucket struct {
	mu        sync.Mutex
	clock     clock.Clock
	buckets   map[string]*bucketState
	lastSweep time.Time
}

func NewMemoryBucket(c clock.Clock) *MemoryBucket {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &MemoryBucket{
		clock:   c,
		buckets: make(map[string]*bucketState),
	}
}

func (m *MemoryBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	if err := ctx.Err(); err != nil {
		return &RateLimitResult{Allowed: false}, err
	}
	if err := validate(key, rate, burst); err != nil {
		return &RateLimitResult{Allowed: false}, err
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evict(now, rate, burst)

	state, ok := m.buckets[key]
	if !ok {
		state = &bucketState{tokens: float64(burst), ts: now}
		m.buckets[key] = state
	} else {
		delta := now.Sub(state.ts).Seconds()
		if delta < 0 {
			delta = 0
		}
		state.tokens = math.Min(float64(burst), state.tokens+delta*rate)
		state.ts = now
	}

	allowed := false
	if state.tokens >= 1 {
		allowed = true
		state.tokens--
	}
	return newResult(allowed, burst, state.tokens, rate, now), nil
}

// evict drops buckets idle long enough to have refilled completely.
func (m *MemoryBucket) evict(now time.Time, rate float64, burst int) {
	ttl := defaultBucketTTL(rate, burst)
	if now.Sub(m.lastSweep) < ttl {
		return
	}
	m.lastSweep = now
	for key, state := range m.buckets {
		if now.Sub(state.ts) > ttl {
			delete(m.buckets, key)
		}
	}
}

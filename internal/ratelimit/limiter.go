// Package ratelimit caps requests per client over a fixed window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"edgetrust/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of counting one request.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(count int64, max int, resetIn time.Duration) Decision {
	remaining := max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(max),
		Limit:     max,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}

/* ===================== MEMORY ===================== */

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter counts per process. Expired windows are swept lazily.
type MemoryLimiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*window
	sweepAt time.Time

	clock func() time.Time
}

func NewMemoryLimiter(max int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  w,
		windows: make(map[string]*window),
		clock:   time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweepAt) {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.sweepAt = now.Add(l.window)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	return decide(w.count, l.max, w.resetAt.Sub(now)), nil
}

/* ===================== REDIS ===================== */

// RedisLimiter shares counters between instances through Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	max    int
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.Scripter, prefix string, max int, w time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: max, window: w, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, ttl, err := utils.IncrWindow(ctx, l.rdb, l.prefix+":"+key, l.window)
	if err != nil {
		return Decision{}, err
	}
	return decide(count, l.max, ttl), nil
}

package pow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AbuseTracker counts requests per client within a sliding window and
// remembers which clients are currently required to solve challenges.
// Implementations must make Hit atomic per key so concurrent requests from
// the same client are not undercounted.
type AbuseTracker interface {
	// Hit increments the rolling counter for key and returns the new count.
	// The counter resets when window elapses without the key being marked.
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	// Require marks key as PoW-required until cooldown expires.
	Require(ctx context.Context, key string, cooldown time.Duration) error
	// Required reports whether key is currently PoW-required.
	Required(ctx context.Context, key string) (bool, error)
}

// MemoryTracker is the single-process backend: a mutex-guarded map with a
// periodic sweep. State is not shared across horizontally scaled instances;
// use RedisTracker for that.
type MemoryTracker struct {
	mu      sync.Mutex
	counts  map[string]*windowCounter
	flagged map[string]time.Time
	now     func() time.Time
}

type windowCounter struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		counts:  make(map[string]*windowCounter),
		flagged: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (t *MemoryTracker) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	wc, ok := t.counts[key]
	if !ok || now.After(wc.expiresAt) {
		wc = &windowCounter{expiresAt: now.Add(window)}
		t.counts[key] = wc
	}
	wc.count++
	return wc.count, nil
}

func (t *MemoryTracker) Require(_ context.Context, key string, cooldown time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flagged[key] = t.now().Add(cooldown)
	return nil
}

func (t *MemoryTracker) Required(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	until, ok := t.flagged[key]
	if !ok {
		return false, nil
	}
	if t.now().After(until) {
		delete(t.flagged, key)
		return false, nil
	}
	return true, nil
}

// Sweep removes expired entries. Run it on a ticker from main.
func (t *MemoryTracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, wc := range t.counts {
		if now.After(wc.expiresAt) {
			delete(t.counts, key)
		}
	}
	for key, until := range t.flagged {
		if now.After(until) {
			delete(t.flagged, key)
		}
	}
}

// RedisTracker is the shared-cache backend for multi-instance deployments.
type RedisTracker struct {
	rdb *redis.Client
}

func NewRedisTracker(rdb *redis.Client) *RedisTracker {
	return &RedisTracker{rdb: rdb}
}

func (t *RedisTracker) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := "pow:hits:" + key

	count, err := t.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment abuse counter in redis: %w", err)
	}
	if count == 1 {
		t.rdb.Expire(ctx, redisKey, window)
	}
	return count, nil
}

func (t *RedisTracker) Require(ctx context.Context, key string, cooldown time.Duration) error {
	return t.rdb.Set(ctx, "pow:required:"+key, "1", cooldown).Err()
}

func (t *RedisTracker) Required(ctx context.Context, key string) (bool, error) {
	n, err := t.rdb.Exists(ctx, "pow:required:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check pow flag in redis: %w", err)
	}
	return n > 0, nil
}

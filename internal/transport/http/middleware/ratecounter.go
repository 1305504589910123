package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type rateBucket struct {
	count int
	reset time.Time
}

type memoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	hits    int
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{buckets: map[string]*rateBucket{}}
}

func (m *memoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits++
	if m.hits%1024 == 0 {
		for k, b := range m.buckets {
			if now.After(b.reset) {
				delete(m.buckets, k)
			}
		}
	}
	bucket, ok := m.buckets[key]
	if !ok || now.After(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(window)}
		m.buckets[key] = bucket
	}
	bucket.count++
	return bucket.count, bucket.reset, nil
}

const redisRatePrefix = "payflow:ratelimit:"

// RedisRateCounter keeps fixed-window counters in Redis so every console
// instance sees the same totals.
type RedisRateCounter struct {
	client *redis.Client
}

func NewRedisRateCounter(client *redis.Client) *RedisRateCounter {
	return &RedisRateCounter{client: client}
}

// rateHitScript increments the window counter and sets its expiry in the same
// atomic step. A key found without a TTL gets one here too.
var rateHitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

func (c *RedisRateCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	res, err := rateHitScript.Run(ctx, c.client, []string{redisRatePrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate hit: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("redis rate hit: unexpected reply %v", res)
	}
	return int(res[0]), time.Now().Add(time.Duration(res[1]) * time.Millisecond), nil
}

// Package refresh caches query results per key until a command invalidates them.
// Concurrent loads of the same key share one call.
package refresh

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value    V
	loadedAt time.Time
}

type Cache[V any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry[V]
	gens    map[string]uint64
	epoch   uint64
}

// New returns a cache whose entries expire after ttl. A zero ttl keeps entries until invalidated.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]entry[V]{},
		gens:    map[string]uint64{},
	}
}

func (c *Cache[V]) Get(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && (c.ttl <= 0 || c.now().Sub(e.loadedAt) < c.ttl) {
		c.mu.Unlock()
		return e.value, nil
	}
	gen, epoch := c.gens[key], c.epoch
	c.mu.Unlock()

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		if c.gens[key] == gen && c.epoch == epoch {
			c.entries[key] = entry[V]{value: v, loadedAt: c.now()}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Invalidate drops the cached value and detaches any in-flight load so the next Get refetches.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateAll drops every cached value. Used when a command cannot name the key it affects.
func (c *Cache[V]) InvalidateAll() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = map[string]entry[V]{}
	c.epoch++
	c.mu.Unlock()
	for _, key := range keys {
		c.group.Forget(key)
	}
}

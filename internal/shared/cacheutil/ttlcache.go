// Package cacheutil provides small process-scoped TTL caches for hot-path
// reads. Writers invalidate explicitly so their own subsequent reads observe
// the write; other readers may see the prior value until the TTL lapses.
package cacheutil

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Value caches a single value with a TTL. Concurrent refills are collapsed
// through singleflight so a backing read runs at most once per expiry.
type Value[T any] struct {
	mu        sync.RWMutex
	value     T
	loadedAt  time.Time
	ttl       time.Duration
	populated bool
	group     singleflight.Group
}

// NewValue creates a Value cache with the given TTL.
func NewValue[T any](ttl time.Duration) *Value[T] {
	return &Value[T]{ttl: ttl}
}

// Get returns the cached value, loading it through load when absent or stale.
// All concurrent callers that miss share one load call.
func (c *Value[T]) Get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	c.mu.RLock()
	if c.populated && time.Since(c.loadedAt) < c.ttl {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("value", func() (any, error) {
		// Double-check under the flight: another caller may have
		// completed the refill while we queued.
		c.mu.RLock()
		if c.populated && time.Since(c.loadedAt) < c.ttl {
			v := c.value
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		loaded, err := load(ctx)
		if err != nil {
			var zero T
			return zero, err
		}

		c.mu.Lock()
		c.value = loaded
		c.loadedAt = time.Now()
		c.populated = true
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops the cached value. The next Get performs a fresh load.
func (c *Value[T]) Invalidate() {
	c.mu.Lock()
	c.populated = false
	c.mu.Unlock()
}

type keyedEntry[T any] struct {
	value    T
	loadedAt time.Time
}

// Keyed caches values per string key with a shared TTL. Refills are
// serialized per key: at most one backing read runs for a given key while
// other callers for the same key wait on its result.
type Keyed[T any] struct {
	mu      sync.RWMutex
	entries map[string]keyedEntry[T]
	ttl     time.Duration
	group   singleflight.Group
}

// NewKeyed creates a Keyed cache with the given TTL.
func NewKeyed[T any](ttl time.Duration) *Keyed[T] {
	return &Keyed[T]{
		entries: make(map[string]keyedEntry[T]),
		ttl:     ttl,
	}
}

// Get returns the cached value for key, loading it through load on a miss.
func (c *Keyed[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	c.mu.RLock()
	if e, ok := c.entries[key]; ok && time.Since(e.loadedAt) < c.ttl {
		c.mu.RUnlock()
		return e.value, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		if e, ok := c.entries[key]; ok && time.Since(e.loadedAt) < c.ttl {
			c.mu.RUnlock()
			return e.value, nil
		}
		c.mu.RUnlock()

		loaded, err := load(ctx)
		if err != nil {
			var zero T
			return zero, err
		}

		c.mu.Lock()
		c.entries[key] = keyedEntry[T]{value: loaded, loadedAt: time.Now()}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops all cached entries. Mutators call this so their own
// subsequent reads see the write immediately.
func (c *Keyed[T]) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]keyedEntry[T])
	c.mu.Unlock()
}

// InvalidateKey drops a single cached entry.
func (c *Keyed[T]) InvalidateKey(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

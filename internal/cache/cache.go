// Package cache provides a memoizing cache with manual invalidation.
//
// Values are computed at most once concurrently per key and kept until the
// owner explicitly invalidates them. There is no TTL and no size bound: the
// cached values are small and the owning component knows exactly when the
// outside world changed (a manual reset, a detected misconfiguration).
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes values of type V under string keys.
//
// Safe for concurrent use. The zero value is not usable; call New.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]V
	// gens guards against a slow in-flight compute re-populating a key that
	// was invalidated while it ran. Store only wins if the generation seen
	// before computing is still current.
	gens  map[string]uint64
	group singleflight.Group
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: map[string]V{},
		gens:    map[string]uint64{},
	}
}

// Key builds a cache key from a function identity and its arguments.
//
// Arguments that must not fragment the key (e.g. a "current time" passed only
// for staleness checks) are simply left out by the caller.
func Key(fn string, args ...any) string {
	var b strings.Builder
	b.WriteString(fn)
	for _, a := range args {
		fmt.Fprintf(&b, "|%v", a)
	}
	return b.String()
}

// funcPrefix is the prefix shared by every key built from fn.
func funcPrefix(fn string) string { return fn + "|" }

// Get returns the cached value for key, if present.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	v, ok := c.entries[key]
	c.mu.Unlock()
	return v, ok
}

// Put stores a value directly, bypassing compute.
func (c *Cache[V]) Put(key string, v V) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Concurrent callers for the same key share one in-flight compute.
// A failed compute stores nothing; the next call retries.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	out, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: another caller may have finished between our miss and
		// entering the flight group.
		c.mu.Lock()
		if v, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return v, nil
		}
		gen := c.gens[key]
		c.mu.Unlock()

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return out.(V), nil
}

// Invalidate removes the entry for key. Invalidating an absent key is a no-op.
// It reports whether an entry was removed.
func (c *Cache[V]) Invalidate(key string) bool {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	return ok
}

// InvalidateFunc removes every entry whose key was built from fn via Key.
// It returns the number of entries removed.
func (c *Cache[V]) InvalidateFunc(fn string) int {
	prefix := funcPrefix(fn)
	c.mu.Lock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) || k == fn {
			delete(c.entries, k)
			c.gens[k]++
			n++
		}
	}
	c.mu.Unlock()
	return n
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return n
}

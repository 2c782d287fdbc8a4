// Package cache provides a generic bounded cache over
// github.com/hashicorp/golang-lru/v2, used by the provider runtime's
// descriptor cache and the virtual drive's mmap read cache. Unlike the
// teacher's own Cache[T], which holds every element with no eviction, both
// uses here are genuinely capacity-bounded so a real LRU policy is used
// instead.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// EvictListener is invoked whenever the LRU evicts an entry to make room for
// a new one, so callers holding non-GC resources (an open mmap, a warmed-up
// Provider) can release them.
type EvictListener[K comparable, V any] func(key K, value V)

// LRU is a fixed-capacity, thread-safe cache keyed by K holding values V.
// It wraps hashicorp/golang-lru/v2's Cache, adding a GetOrCreate convenience
// for the "compute on miss" pattern both call sites need.
type LRU[K comparable, V any] struct {
	inner *lru.Cache[K, V]
}

// New builds an LRU capped at capacity entries. onEvict, if non-nil, runs
// synchronously on the goroutine that triggered the eviction.
func New[K comparable, V any](capacity int, onEvict EvictListener[K, V]) (*LRU[K, V], error) {
	var cb lru.EvictCallback[K, V]
	if onEvict != nil {
		cb = func(key K, value V) { onEvict(key, value) }
	}
	inner, err := lru.NewWithEvict[K, V](capacity, cb)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{inner: inner}, nil
}

// Get returns the cached value for key, if present.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	return c.inner.Get(key)
}

// Add inserts or replaces the value for key, evicting the least recently
// used entry if the cache is at capacity.
func (c *LRU[K, V]) Add(key K, value V) {
	c.inner.Add(key, value)
}

// Remove evicts key if present, running the evict listener.
func (c *LRU[K, V]) Remove(key K) {
	c.inner.Remove(key)
}

// Len returns the number of entries currently cached.
func (c *LRU[K, V]) Len() int {
	return c.inner.Len()
}

// Purge removes every entry, running the evict listener for each.
func (c *LRU[K, V]) Purge() {
	c.inner.Purge()
}

// GetOrCreate returns the cached value for key, computing and caching it via
// factory on a miss. factory errors are not cached.
func (c *LRU[K, V]) GetOrCreate(key K, factory func() (V, error)) (V, error) {
	if v, ok := c.inner.Get(key); ok {
		return v, nil
	}
	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}
	c.inner.Add(key, v)
	return v, nil
}

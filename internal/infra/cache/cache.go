// Package cache provides a typed in-memory TTL cache backed by go-cache.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemory is a thread-safe in-memory cache with TTL. Expired entries are
// purged every ttl.
type InMemory[T any] struct {
	items *gocache.Cache
}

// New creates a new in-memory cache with the given TTL.
func New[T any](ttl time.Duration) *InMemory[T] {
	return &InMemory[T]{items: gocache.New(ttl, ttl)}
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.items.SetDefault(key, value)
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.items.Delete(key)
}

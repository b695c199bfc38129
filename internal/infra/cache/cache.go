// Package cache holds read-path snapshots of the ledger document so GET
// traffic between commits does not hit the store. Entries expire after a
// fixed TTL and the action path drops them on every successful commit.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a TTL map safe for concurrent readers and writers.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
}

// New builds a cache whose entries live for ttl. A janitor goroutine sweeps
// expired entries so an idle key does not pin its value forever.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
	go c.janitor()
	return c
}

// Get returns the live value for key. Expired entries count as misses; the
// janitor reclaims them, Get never writes.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || !time.Now().Before(it.expiresAt) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key for the configured TTL, replacing any previous
// entry.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete drops key. Deleting an absent key is a no-op.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *InMemory[T]) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, it := range c.items {
			if !now.Before(it.expiresAt) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}

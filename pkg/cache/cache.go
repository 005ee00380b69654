package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

func (it *item[V]) expired() bool {
	return time.Now().After(it.expiresAt)
}

// Cache is a thread-safe in-memory cache with TTL support.
type Cache[V any] struct {
	items           map[string]*item[V]
	mu              sync.RWMutex
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// New creates a cache with the given default TTL and starts the background
// cleanup loop.
func New[V any](defaultTTL time.Duration) *Cache[V] {
	c := &Cache[V]{
		items:           make(map[string]*item[V]),
		defaultTTL:      defaultTTL,
		cleanupInterval: defaultTTL / 2,
		stopCleanup:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a value from cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	it, exists := c.items[key]
	if !exists || it.expired() {
		return zero, false
	}
	return it.value, true
}

// Set stores a value with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &item[V]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a key from cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of entries, expired ones included until cleanup.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background cleanup goroutine.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, it := range c.items {
				if it.expired() {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Package cache is a small TTL cache shared by the web search and news
// services.
package cache

import (
	"sort"
	"sync"
	"time"
)

// TTL stores values temporarily, keyed by string.
type TTL[V any] struct {
	mu   sync.RWMutex
	data map[string]*entry[V]
	ttl  time.Duration
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type entry[V any] struct {
	value     V
	timestamp time.Time
}

// New creates a cache and starts its cleanup goroutine. Close stops it.
func New[V any](ttl, cleanupEvery time.Duration) *TTL[V] {
	c := &TTL[V]{
		data: make(map[string]*entry[V]),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go c.cleanupLoop(cleanupEvery)
	}
	return c
}

// Get retrieves a cached value if it has not expired
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.data[key]
	if !exists || c.now().Sub(e.timestamp) > c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Age reports how long ago key was stored.
func (c *TTL[V]) Age(key string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.data[key]
	if !exists {
		return 0, false
	}
	return c.now().Sub(e.timestamp), true
}

func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &entry[V]{value: value, timestamp: c.now()}
}

func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*entry[V])
}

// Keys returns the stored keys, expired or not, sorted.
func (c *TTL[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *TTL[V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *TTL[V]) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Cleanup removes expired entries
func (c *TTL[V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.data {
		if now.Sub(e.timestamp) > c.ttl {
			delete(c.data, k)
		}
	}
}

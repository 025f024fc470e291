package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is a bounded, expiring key/value store with hit statistics
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T) error
	Delete(key string)
	Clear()
	Stats() CacheStats
}

type CacheStats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

type LRUCache[T any] struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   CacheStats
	maxSize int
}

func NewCache[T any](maxSize int, ttl time.Duration) Cache[T] {
	return &LRUCache[T]{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(key); found {
		if value, ok := data.(T); ok {
			c.stats.Hits++
			return value, true
		}
	}

	c.stats.Misses++
	var zero T
	return zero, false
}

func (c *LRUCache[T]) Set(key string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache.Get(key); !exists && c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *LRUCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.stats = CacheStats{}
}

func (c *LRUCache[T]) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.cache.ItemCount()
	return stats
}

// removeOldest evicts the entry closest to expiry, which is the oldest write
func (c *LRUCache[T]) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldestExpiry int64

	for key, item := range items {
		if oldestKey == "" || item.Expiration < oldestExpiry {
			oldestKey = key
			oldestExpiry = item.Expiration
		}
	}

	c.cache.Delete(oldestKey)
}

// Key joins parts into a namespaced cache key
func Key(namespace string, parts ...string) string {
	return fmt.Sprintf("%s:%s", namespace, strings.Join(parts, ":"))
}

package services

import (
	"fmt"
	"sync"
	"time"
)

type cacheEntry struct {
	value      interface{}
	insertedAt time.Time
	ttl        time.Duration
}

// Cache is an in-process TTL key-value store used to memoize read-heavy,
// staleness-tolerant data: food search results, dashboard revenue aggregates
// and the approved-voucher list.
//
// Expiry is lazy: an entry older than its TTL is deleted on first access and
// never returned. Invalidation is caller-driven; every write path that could
// stale an entry must call Clear explicitly. Concurrent Sets on the same key
// are last-write-wins.
//
// The cache is process-local. In a horizontally scaled deployment each
// instance holds its own copy; a shared store with the same Get/Set/Has/Clear
// contract can be substituted without touching callers.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the value for key, or nil and false if absent or expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, insertedAt: c.now(), ttl: ttl}
}

// Has reports whether key holds an unexpired entry, deleting it if stale.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return false
	}
	if c.expired(e) {
		delete(c.entries, key)
		return false
	}
	return true
}

// Clear removes one entry regardless of remaining TTL.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// ClearAll drops every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// ClearPrefix removes all entries whose key starts with prefix. Used as
// coarse invalidation when a menu write could stale any number of cached
// search results.
func (c *Cache) ClearPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) expired(e cacheEntry) bool {
	return c.now().Sub(e.insertedAt) > e.ttl
}

// --- Cache key builders ---

const (
	foodSearchPrefix    = "food_search:"
	VouchersApprovedKey = "vouchers:approved"
)

func FoodSearchKey(query string, limit int) string {
	return fmt.Sprintf("%s%s:%d", foodSearchPrefix, query, limit)
}

func FoodSearchPrefix() string {
	return foodSearchPrefix
}

func DashboardStatsKey(restaurantID uint, days int) string {
	return fmt.Sprintf("dashboard:stats:%d:%d", restaurantID, days)
}

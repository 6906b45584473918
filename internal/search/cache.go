package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Cache is a TTL cache for provider results, shared process-wide.
// Entries expire passively on read and are reaped by a background
// janitor; there is no explicit teardown.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	results   []Result
	expiresAt time.Time
}

// NewCache creates a cache with the given TTL and starts its janitor.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
	go c.janitor()
	return c
}

// Key derives the cache key for one provider call.
func Key(provider, query string, maxResults int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", provider, query, maxResults)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached results for key, if present and fresh.
func (c *Cache) Get(key string) ([]Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.results, true
}

// Set stores results under key for the cache TTL.
func (c *Cache) Set(key string, results []Result) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{results: results, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Stats returns lifetime hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *Cache) janitor() {
	interval := c.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}

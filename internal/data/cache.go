package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"caiso-pipeline/internal/model"
)

// CacheEntry represents a cached OASIS response
type CacheEntry struct {
	Table     *model.RawTable
	ExpiresAt time.Time
}

// ResponseCache provides in-memory caching for OASIS SingleZip responses.
//
// This cache is for LOCAL DEVELOPMENT ONLY. The pipeline queries a sliding
// near-real-time window, so a cached response goes stale within minutes;
// in production every run must hit OASIS. The cache is automatically
// disabled when API_ENV=production.
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
}

var globalCache *ResponseCache
var cacheOnce sync.Once

// GetCache returns the global cache instance if caching is enabled.
// Returns nil if caching is disabled.
func GetCache() *ResponseCache {
	// Only enable cache if explicitly enabled via environment variable
	if os.Getenv("ENABLE_OASIS_CACHE") != "true" {
		return nil
	}

	// Additional safety check: never enable in production
	if os.Getenv("API_ENV") == "production" {
		return nil
	}

	cacheOnce.Do(func() {
		ttl := 5 * time.Minute // Default TTL: one dispatch interval
		if ttlStr := os.Getenv("OASIS_CACHE_TTL"); ttlStr != "" {
			if parsed, err := time.ParseDuration(ttlStr); err == nil {
				ttl = parsed
			}
		}

		globalCache = &ResponseCache{
			store: make(map[string]*CacheEntry),
			ttl:   ttl,
		}

		// Start cleanup goroutine
		go globalCache.cleanup()
	})

	return globalCache
}

// Get retrieves a cached table if available and not expired
func (c *ResponseCache) Get(key string) (*model.RawTable, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Table, true
}

// Set stores a table in the cache
func (c *ResponseCache) Set(key string, table *model.RawTable) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Table:     table,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache
func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// cleanup periodically removes expired entries
func (c *ResponseCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.store {
			if now.After(entry.ExpiresAt) {
				delete(c.store, key)
			}
		}
		c.mu.Unlock()
	}
}

// GenerateCacheKey creates a cache key from the query and window
func GenerateCacheKey(q model.Query, w model.Window) string {
	keyStr := fmt.Sprintf("%s:%s:%s:%s:%s",
		q.Name,
		q.MarketRunID,
		strings.Join(q.Nodes, ","),
		w.StartWire(),
		w.EndWire(),
	)

	// Hash the key to keep it reasonably sized
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}

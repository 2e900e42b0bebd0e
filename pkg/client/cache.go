package client

import (
	"sync"
	"time"
)

// --- simple in-memory response cache ---

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

// responseCache holds raw response bodies keyed by request URL. Each entry
// carries its own TTL so one cache can serve every CachePolicy.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string]*cacheEntry)}
}

func (rc *responseCache) get(key string) ([]byte, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	e, ok := rc.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.body, true
}

func (rc *responseCache) set(key string, body []byte, ttl time.Duration) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[key] = &cacheEntry{body: body, expiresAt: time.Now().Add(ttl)}
}

// evict removes all expired entries and returns how many were dropped.
func (rc *responseCache) evict() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	n := 0
	now := time.Now()
	for k, e := range rc.entries {
		if now.After(e.expiresAt) {
			delete(rc.entries, k)
			n++
		}
	}
	return n
}

// PurgeExpired drops expired cache entries. It is a no-op when the cache is
// disabled. Long-running processes call it periodically.
func (c *Client) PurgeExpired() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.evict()
}

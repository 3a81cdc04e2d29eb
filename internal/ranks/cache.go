package ranks

import (
	"context"
	"sync"
	"time"

	"matchsync/internal/db"
)

// Entry is a cached rank lookup. A nil Rank means the player was unranked
// when RefreshedAt was recorded.
type Entry struct {
	Rank        *db.Rank  `json:"rank,omitempty"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// Cache stores rank lookups keyed by platform and puuid
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
}

// CacheKey builds the cache key for a player on a platform
func CacheKey(platform, puuid string) string {
	return "rank:" + platform + ":" + puuid
}

// MemoryCache is a process-local Cache. Entries are kept until overwritten;
// freshness is decided by the resolver from RefreshedAt.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, e Entry) error {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

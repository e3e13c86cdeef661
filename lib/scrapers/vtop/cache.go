package vtop

import (
	"context"
	"sync"
	"time"
)

// cacheTTL bounds how stale portal data may get before a fresh scrape.
const cacheTTL = 30 * time.Minute

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// categoryCache holds the results of prior scrapes, one slot per data
// category. Entries expire lazily against the injected clock; errors
// are never stored, so a failed fetch retries on the next call.
type categoryCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

func newCategoryCache(now func() time.Time) *categoryCache {
	return &categoryCache{
		now:     now,
		entries: map[string]cacheEntry{},
	}
}

func (c *categoryCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) >= cacheTTL {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *categoryCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, fetchedAt: c.now()}
}

func (c *categoryCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]cacheEntry{}
}

// cached serves key from the client's cache, falling through to fetch
// on a miss. Only successful fetches are stored.
func cached[T any](ctx context.Context, c *Client, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if value, ok := c.cache.get(key); ok {
		if typed, ok := value.(T); ok {
			return typed, nil
		}
	}
	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.cache.put(key, value)
	return value, nil
}

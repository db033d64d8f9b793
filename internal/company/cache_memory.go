package company

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCache keeps candidate lists in process. Entries expire after ttl;
// when full, the entry read or written longest ago is evicted. Lists are
// copied on the way in and out so callers never share the cached slice.
type MemoryCache struct {
	mu         sync.Mutex
	lists      map[string]cachedList
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

type cachedList struct {
	companies []Company
	storedAt  time.Time
	usedAt    time.Time
}

// NewMemoryCache creates a MemoryCache holding at most maxEntries lists.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		lists:      make(map[string]cachedList),
		maxEntries: max(maxEntries, 1),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns a copy of the list stored under key. Expired lists are dropped.
func (c *MemoryCache) Get(_ context.Context, key string) ([]Company, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	l, ok := c.lists[key]
	if !ok {
		return nil, false
	}
	if now.Sub(l.storedAt) > c.ttl {
		delete(c.lists, key)
		return nil, false
	}
	l.usedAt = now
	c.lists[key] = l
	return slices.Clone(l.companies), true
}

// Set stores a copy of companies under key.
func (c *MemoryCache) Set(_ context.Context, key string, companies []Company) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.lists[key]; !ok {
		c.dropExpired(now)
		for len(c.lists) >= c.maxEntries {
			c.evictStalest()
		}
	}
	c.lists[key] = cachedList{companies: slices.Clone(companies), storedAt: now, usedAt: now}
}

func (c *MemoryCache) dropExpired(now time.Time) {
	for k, l := range c.lists {
		if now.Sub(l.storedAt) > c.ttl {
			delete(c.lists, k)
		}
	}
}

// evictStalest removes the least recently used list. Ties go to the smaller key.
func (c *MemoryCache) evictStalest() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for k, l := range c.lists {
		if !found || l.usedAt.Before(oldest) || (l.usedAt.Equal(oldest) && k < victim) {
			victim, oldest, found = k, l.usedAt, true
		}
	}
	if found {
		delete(c.lists, victim)
	}
}

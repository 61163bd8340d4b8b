package iamkit

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheStats reports permission cache effectiveness.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Len    int   `json:"len"`
}

// permissionCache memoizes resolved permission sets keyed by role id.
// Keying by role rather than by user means a role reassignment needs no
// invalidation at all; only assignment writes touch the cache.
type permissionCache struct {
	lru  *lru.LRU[int64, PermissionSet]
	size int
	ttl  time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func newPermissionCache(size int, ttl time.Duration) *permissionCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &permissionCache{
		lru:  lru.NewLRU[int64, PermissionSet](size, nil, ttl),
		size: size,
		ttl:  ttl,
	}
}

func (c *permissionCache) get(roleID int64) (PermissionSet, bool) {
	ps, ok := c.lru.Get(roleID)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ps, ok
}

func (c *permissionCache) put(roleID int64, ps PermissionSet) {
	c.lru.Add(roleID, ps)
}

func (c *permissionCache) invalidate(roleID int64) {
	c.lru.Remove(roleID)
}

func (c *permissionCache) purge() {
	c.lru.Purge()
}

func (c *permissionCache) stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.lru.Len(),
	}
}

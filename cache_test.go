package iamkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestPermissionCacheHitMiss tests basic caching and counters
func TestPermissionCacheHitMiss(t *testing.T) {
	cache := newPermissionCache(16, time.Minute)

	_, ok := cache.get(1)
	assert.False(t, ok)

	cache.put(1, NewPermissionSet(PermAdmin))
	ps, ok := cache.get(1)
	assert.True(t, ok)
	assert.True(t, ps.Admin())

	stats := cache.stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Len)
}

// TestPermissionCacheInvalidate tests per-role invalidation
func TestPermissionCacheInvalidate(t *testing.T) {
	cache := newPermissionCache(16, time.Minute)
	cache.put(1, NewPermissionSet(PermAdmin))
	cache.put(2, NewPermissionSet(PermUser))

	cache.invalidate(1)
	_, ok := cache.get(1)
	assert.False(t, ok)
	_, ok = cache.get(2)
	assert.True(t, ok)

	cache.purge()
	_, ok = cache.get(2)
	assert.False(t, ok)
}

// TestPermissionCacheTTL tests expiry-based invalidation
func TestPermissionCacheTTL(t *testing.T) {
	cache := newPermissionCache(16, 10*time.Millisecond)
	cache.put(1, NewPermissionSet(PermAdmin))

	_, ok := cache.get(1)
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = cache.get(1)
	assert.False(t, ok)
}

// TestPermissionCacheDefaults tests fallback sizing
func TestPermissionCacheDefaults(t *testing.T) {
	cache := newPermissionCache(0, 0)
	assert.Equal(t, defaultCacheSize, cache.size)
	assert.Equal(t, defaultCacheTTL, cache.ttl)
}

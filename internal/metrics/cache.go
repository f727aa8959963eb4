package metrics

import (
	"context"
	"time"

	"github.com/go-badgelink/badgelink/internal/cache"
)

// connectionCounter defines the database operations needed by CacheWrapper.
// This interface allows for easier testing without requiring a full store.Store.
type connectionCounter interface {
	CountConnected(ctx context.Context) (int64, error)
}

// CacheWrapper provides a read-through cache for gauge metric data.
// It queries the database on cache miss and updates the cache for subsequent
// requests, via the cache's cache-aside support.
type CacheWrapper struct {
	store connectionCounter
	cache cache.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store connectionCounter, c cache.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: c,
	}
}

// GetConnectedCount retrieves the number of linked accounts, served from cache
// when fresh. The TTL should match the gauge update interval.
func (m *CacheWrapper) GetConnectedCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return cache.GetWithFetch(
		ctx,
		m.cache,
		"connections:total",
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return m.store.CountConnected(ctx)
		},
	)
}

package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-badgelink/badgelink/internal/cache"
)

type fakeCounter struct {
	count int64
	err   error
	calls int
}

func (f *fakeCounter) CountConnected(_ context.Context) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func TestCacheWrapper_GetConnectedCount_CacheHit(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryCache[int64]()
	counter := &fakeCounter{count: 100}

	wrapper := NewCacheWrapper(counter, memCache)

	// Pre-populate cache; the store must not be queried
	_ = memCache.Set(ctx, "connections:total", 42, time.Minute)

	count, err := wrapper.GetConnectedCount(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 42 {
		t.Errorf("Expected count 42, got %d", count)
	}
	if counter.calls != 0 {
		t.Errorf("Expected store not to be queried on cache hit, got %d calls", counter.calls)
	}
}

func TestCacheWrapper_GetConnectedCount_CacheMiss(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryCache[int64]()
	counter := &fakeCounter{count: 100}

	wrapper := NewCacheWrapper(counter, memCache)

	count, err := wrapper.GetConnectedCount(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 100 {
		t.Errorf("Expected count 100, got %d", count)
	}

	// Verify cache was updated
	cached, err := memCache.Get(ctx, "connections:total")
	if err != nil {
		t.Fatalf("Expected cache to be updated, got error: %v", err)
	}
	if cached != 100 {
		t.Errorf("Expected cached value 100, got %d", cached)
	}
}

func TestCacheWrapper_GetConnectedCount_DBError(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryCache[int64]()
	counter := &fakeCounter{err: errors.New("connection refused")}

	wrapper := NewCacheWrapper(counter, memCache)

	_, err := wrapper.GetConnectedCount(ctx, time.Minute)
	if err == nil {
		t.Fatal("Expected error when the store query fails")
	}
}

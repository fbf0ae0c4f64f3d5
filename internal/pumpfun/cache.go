package pumpfun

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"pumpscope/internal/domain"
)

// Default cache TTLs per feed.
const (
	DefaultRecentTTL = 30 * time.Second
	DefaultKingTTL   = 60 * time.Second
)

// CacheConfig configures CachedFeed. A zero TTL disables caching for that feed.
type CacheConfig struct {
	RecentTTL time.Duration
	KingTTL   time.Duration
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		RecentTTL: DefaultRecentTTL,
		KingTTL:   DefaultKingTTL,
	}
}

// HitObserver is notified on every cache lookup.
type HitObserver func(feed string, hit bool)

// CachedFeed wraps a Feed and caches successful responses for a short TTL.
// Failures are never cached.
type CachedFeed struct {
	next     Feed
	cache    *ristretto.Cache
	config   CacheConfig
	observer HitObserver
}

// NewCachedFeed creates a caching wrapper around next.
func NewCachedFeed(next Feed, config CacheConfig, observer HitObserver) (*CachedFeed, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     1 << 20, // cost is counted in listings
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create listing cache: %w", err)
	}

	return &CachedFeed{
		next:     next,
		cache:    cache,
		config:   config,
		observer: observer,
	}, nil
}

// RecentlyCreated returns cached recent listings or fetches them.
func (f *CachedFeed) RecentlyCreated(ctx context.Context, limit int) ([]domain.TokenListing, error) {
	return f.get(ctx, "recent", limit, f.config.RecentTTL, f.next.RecentlyCreated)
}

// KingOfTheHill returns cached leading listings or fetches them.
func (f *CachedFeed) KingOfTheHill(ctx context.Context, limit int) ([]domain.TokenListing, error) {
	return f.get(ctx, "king", limit, f.config.KingTTL, f.next.KingOfTheHill)
}

// Close stops the cache's background goroutines.
func (f *CachedFeed) Close() {
	f.cache.Close()
}

type fetchFunc func(ctx context.Context, limit int) ([]domain.TokenListing, error)

func (f *CachedFeed) get(ctx context.Context, feed string, limit int, ttl time.Duration, fetch fetchFunc) ([]domain.TokenListing, error) {
	if ttl <= 0 {
		return fetch(ctx, limit)
	}

	key := fmt.Sprintf("%s:%d", feed, limit)
	if v, ok := f.cache.Get(key); ok {
		f.observe(feed, true)
		return cloneListings(v.([]domain.TokenListing)), nil
	}
	f.observe(feed, false)

	listings, err := fetch(ctx, limit)
	if err != nil {
		return nil, err
	}

	cost := int64(len(listings))
	if cost == 0 {
		cost = 1
	}
	f.cache.SetWithTTL(key, cloneListings(listings), cost, ttl)
	f.cache.Wait()

	return listings, nil
}

func (f *CachedFeed) observe(feed string, hit bool) {
	if f.observer != nil {
		f.observer(feed, hit)
	}
}

// cloneListings copies the slice so callers cannot mutate cached entries.
func cloneListings(in []domain.TokenListing) []domain.TokenListing {
	out := make([]domain.TokenListing, len(in))
	copy(out, in)
	return out
}

var _ Feed = (*CachedFeed)(nil)

package pumpfun

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpscope/internal/domain"
)

// countingFeed is a Feed that records calls and returns fixed results.
type countingFeed struct {
	mu     sync.Mutex
	recent int
	king   int
	err    error
}

func (f *countingFeed) RecentlyCreated(_ context.Context, limit int) ([]domain.TokenListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent++
	if f.err != nil {
		return nil, f.err
	}
	return []domain.TokenListing{{Mint: "R1", Name: "Recent"}}, nil
}

func (f *countingFeed) KingOfTheHill(_ context.Context, limit int) ([]domain.TokenListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.king++
	if f.err != nil {
		return nil, f.err
	}
	return []domain.TokenListing{{Mint: "K1", Name: "King"}}, nil
}

func TestCachedFeed_ServesFromCache(t *testing.T) {
	next := &countingFeed{}
	var hits, misses int
	feed, err := NewCachedFeed(next, DefaultCacheConfig(), func(_ string, hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})
	require.NoError(t, err)
	defer feed.Close()

	ctx := context.Background()
	first, err := feed.RecentlyCreated(ctx, 10)
	require.NoError(t, err)
	second, err := feed.RecentlyCreated(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.recent)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	// Different limit is a different key.
	_, err = feed.RecentlyCreated(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, next.recent)
}

func TestCachedFeed_FailuresNotCached(t *testing.T) {
	next := &countingFeed{err: errors.New("upstream down")}
	feed, err := NewCachedFeed(next, DefaultCacheConfig(), nil)
	require.NoError(t, err)
	defer feed.Close()

	ctx := context.Background()
	_, err = feed.KingOfTheHill(ctx, 5)
	require.Error(t, err)

	next.mu.Lock()
	next.err = nil
	next.mu.Unlock()

	listings, err := feed.KingOfTheHill(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.Equal(t, 2, next.king)
}

func TestCachedFeed_ZeroTTLDisablesCache(t *testing.T) {
	next := &countingFeed{}
	feed, err := NewCachedFeed(next, CacheConfig{RecentTTL: 0, KingTTL: time.Minute}, nil)
	require.NoError(t, err)
	defer feed.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := feed.RecentlyCreated(ctx, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, next.recent)
}

func TestCachedFeed_CallerMutationDoesNotLeak(t *testing.T) {
	next := &countingFeed{}
	feed, err := NewCachedFeed(next, DefaultCacheConfig(), nil)
	require.NoError(t, err)
	defer feed.Close()

	ctx := context.Background()
	first, err := feed.KingOfTheHill(ctx, 5)
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := feed.KingOfTheHill(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "King", second[0].Name)
}

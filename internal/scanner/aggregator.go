// Package scanner combines upstream reads into the responses served by the API.
package scanner

import (
	"context"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pumpscope/internal/domain"
	"pumpscope/internal/pumpfun"
	"pumpscope/internal/risk"
)

// Default aggregation limits.
const (
	DefaultRecentLimit    = 10
	DefaultKingLimit      = 5
	DefaultDescriptionMax = 100
	DefaultSourceTimeout  = 10 * time.Second
)

// Feed names used in logs and metrics.
const (
	FeedRecent = "recent"
	FeedKing   = "king"
)

// SourceObserver is notified after each upstream fetch.
type SourceObserver func(feed string, elapsed time.Duration, err error)

// AggregatorOptions for creating Aggregator.
type AggregatorOptions struct {
	Feed pumpfun.Feed

	RecentLimit    int           // default 10
	KingLimit      int           // default 5
	DescriptionMax int           // default 100 UTF-16 code units
	SourceTimeout  time.Duration // per upstream fetch, default 10s

	Observer SourceObserver
	Logger   *zerolog.Logger
	Now      func() time.Time
}

// Aggregator fetches recent and leading listings concurrently and scores the recent ones.
// A failing source degrades to an empty list without affecting the other.
type Aggregator struct {
	feed           pumpfun.Feed
	recentLimit    int
	kingLimit      int
	descriptionMax int
	sourceTimeout  time.Duration
	observer       SourceObserver
	logger         zerolog.Logger
	now            func() time.Time
}

// NewAggregator creates a new Aggregator.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	a := &Aggregator{
		feed:           opts.Feed,
		recentLimit:    opts.RecentLimit,
		kingLimit:      opts.KingLimit,
		descriptionMax: opts.DescriptionMax,
		sourceTimeout:  opts.SourceTimeout,
		observer:       opts.Observer,
		logger:         zerolog.Nop(),
		now:            opts.Now,
	}
	if a.recentLimit <= 0 {
		a.recentLimit = DefaultRecentLimit
	}
	if a.kingLimit <= 0 {
		a.kingLimit = DefaultKingLimit
	}
	if a.descriptionMax <= 0 {
		a.descriptionMax = DefaultDescriptionMax
	}
	if a.sourceTimeout <= 0 {
		a.sourceTimeout = DefaultSourceTimeout
	}
	if opts.Logger != nil {
		a.logger = *opts.Logger
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Aggregate builds a LaunchSnapshot. It fails only when ctx is done before the
// snapshot is assembled; upstream failures yield empty lists.
func (a *Aggregator) Aggregate(ctx context.Context) (*domain.LaunchSnapshot, error) {
	var recent, king []domain.TokenListing

	// Source failures are absorbed by fetch; the group fails only when ctx is done.
	var g errgroup.Group
	g.Go(func() error {
		recent = a.fetch(ctx, FeedRecent, a.recentLimit, a.feed.RecentlyCreated)
		return ctx.Err()
	})
	g.Go(func() error {
		king = a.fetch(ctx, FeedKing, a.kingLimit, a.feed.KingOfTheHill)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate listings: %w", err)
	}

	scored := make([]domain.ScoredListing, len(recent))
	for i, l := range recent {
		l.Description = truncateUTF16(l.Description, a.descriptionMax)
		scored[i] = domain.ScoredListing{
			Listing: l,
			Risk:    risk.Assess(l),
		}
	}

	if len(king) > a.kingLimit {
		king = king[:a.kingLimit]
	}

	return &domain.LaunchSnapshot{
		Recent:        scored,
		KingOfTheHill: king,
		GeneratedAt:   a.now().UTC(),
		Source:        pumpfun.SourceName,
	}, nil
}

type fetchFunc func(ctx context.Context, limit int) ([]domain.TokenListing, error)

// fetch runs one upstream read with its own timeout. Any failure, including a
// panic in the feed, is logged and replaced with an empty list.
func (a *Aggregator) fetch(ctx context.Context, feed string, limit int, fn fetchFunc) (listings []domain.TokenListing) {
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if a.observer != nil {
			a.observer(feed, time.Since(start), err)
		}
		if err != nil {
			a.logger.Warn().Err(err).Str("feed", feed).Dur("elapsed", time.Since(start)).Msg("upstream fetch failed, using empty list")
			listings = []domain.TokenListing{}
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	listings, err = fn(fetchCtx, limit)
	if listings == nil {
		listings = []domain.TokenListing{}
	}
	return listings
}

// truncateUTF16 cuts s to at most max UTF-16 code units, the unit upstream
// description limits are counted in. A surrogate pair is never split, so a cut
// that would land inside one stops before it.
func truncateUTF16(s *string, max int) *string {
	if s == nil {
		return nil
	}
	units := 0
	for i, r := range *s {
		n := utf16.RuneLen(r)
		if units+n > max {
			cut := (*s)[:i]
			return &cut
		}
		units += n
	}
	return s
}

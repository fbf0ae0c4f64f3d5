package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pumpscope/internal/config"
	"pumpscope/internal/observability"
	"pumpscope/internal/pumpfun"
	"pumpscope/internal/scanner"
	"pumpscope/internal/solana"
	"pumpscope/internal/storage"
	"pumpscope/internal/storage/file"
	"pumpscope/internal/storage/memory"
	"pumpscope/internal/storage/migrations"
	pgstore "pumpscope/internal/storage/postgres"
	"pumpscope/internal/storage/sqlite"
	"pumpscope/internal/waitlist"
)

// newAggregator builds the launch-feed client, its cache and the aggregator.
// The returned cleanup releases the cache.
func newAggregator(cfg config.Config, logger zerolog.Logger) (*scanner.Aggregator, func(), error) {
	client := pumpfun.NewClient(cfg.Pumpfun.BaseURL, pumpfun.WithTimeout(cfg.Pumpfun.Timeout))

	cached, err := pumpfun.NewCachedFeed(client, pumpfun.CacheConfig{
		RecentTTL: cfg.Pumpfun.RecentTTL,
		KingTTL:   cfg.Pumpfun.KingTTL,
	}, observability.RecordCacheLookup)
	if err != nil {
		return nil, nil, fmt.Errorf("create listing cache: %w", err)
	}

	aggLogger := logger.With().Str("component", "aggregator").Logger()
	agg := scanner.NewAggregator(scanner.AggregatorOptions{
		Feed:          cached,
		RecentLimit:   cfg.Pumpfun.RecentLimit,
		KingLimit:     cfg.Pumpfun.KingLimit,
		SourceTimeout: cfg.Pumpfun.Timeout,
		Observer:      observability.RecordUpstreamFetch,
		Logger:        &aggLogger,
	})

	return agg, cached.Close, nil
}

// newInspector builds the JSON-RPC client and program inspector.
func newInspector(cfg config.Config, logger zerolog.Logger) (*scanner.ProgramInspector, error) {
	rpc := solana.NewHTTPClient(cfg.Solana.Endpoint,
		solana.WithTimeout(cfg.Solana.Timeout),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
		solana.WithObserver(observability.RecordRPCCall),
	)

	inspLogger := logger.With().Str("component", "program").Logger()
	return scanner.NewProgramInspector(scanner.ProgramInspectorOptions{
		RPC:         rpc,
		ProgramID:   cfg.Solana.ProgramID,
		Network:     cfg.Solana.Network,
		MaxAccounts: cfg.Solana.MaxAccounts,
		Timeout:     cfg.Solana.Timeout,
		Logger:      &inspLogger,
	})
}

// openStore opens the configured waitlist backend. The returned cleanup closes it.
func openStore(ctx context.Context, cfg config.WaitlistConfig) (storage.WaitlistStore, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewWaitlistStore(), func() {}, nil

	case config.DriverFile:
		return file.NewWaitlistStore(cfg.Path), func() {}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewWaitlistStore(db), func() { db.Close() }, nil

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.NewWaitlistStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown waitlist driver %q", cfg.Driver)
	}
}

// newWaitlistService opens the store and wraps it in the service.
func newWaitlistService(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*waitlist.Service, func(), error) {
	store, cleanup, err := openStore(ctx, cfg.Waitlist)
	if err != nil {
		return nil, nil, fmt.Errorf("open waitlist store: %w", err)
	}

	svc, err := waitlist.NewService(waitlist.Options{Store: store, Logger: &logger})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

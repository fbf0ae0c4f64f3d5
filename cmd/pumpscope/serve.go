package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pumpscope/internal/api"
	"pumpscope/internal/config"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().String("addr", "", "HTTP listen address (overrides http.addr)")
	cmd.Flags().String("waitlist-driver", "", "waitlist backend: memory, file, sqlite, postgres")
	cmd.Flags().String("waitlist-path", "", "waitlist file or sqlite database path")
	return cmd
}

// applyServeFlags copies explicitly set serve flags onto cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if v, err := flags.GetString("addr"); err == nil && flags.Changed("addr") {
		cfg.HTTP.Addr = v
	}
	if v, err := flags.GetString("waitlist-driver"); err == nil && flags.Changed("waitlist-driver") {
		cfg.Waitlist.Driver = v
	}
	if v, err := flags.GetString("waitlist-path"); err == nil && flags.Changed("waitlist-path") {
		cfg.Waitlist.Path = v
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, logger := opts.cfg, opts.logger

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	agg, closeCache, err := newAggregator(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	inspector, err := newInspector(cfg, logger)
	if err != nil {
		return err
	}

	svc, closeStore, err := newWaitlistService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	router, err := api.NewRouter(api.Options{
		Scanner:        agg,
		Programs:       inspector,
		Waitlist:       svc,
		StreamInterval: cfg.Stream.Interval,
		Logger:         &logger,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("network", cfg.Solana.Network).
			Str("program_id", cfg.Solana.ProgramID).
			Str("waitlist_driver", cfg.Waitlist.Driver).
			Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("received signal, initiating graceful shutdown")
	case <-parent.Done():
	}

	// Stream handlers watch ctx; cancel it so they close before Shutdown waits.
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stop()

	go func() {
		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Dur("timeout", cfg.HTTP.ShutdownTimeout).Msg("graceful shutdown timed out")
		return err
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

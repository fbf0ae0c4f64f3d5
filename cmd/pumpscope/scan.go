package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pumpscope/internal/api"
	"pumpscope/internal/scanner"
	"pumpscope/internal/solana"
)

// commandTimeout bounds one-shot commands.
const commandTimeout = 30 * time.Second

func newScanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Fetch and risk-score recent launches once and print the /api/pumpfun body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			agg, closeCache, err := newAggregator(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer closeCache()

			snap, err := agg.Aggregate(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.NewPumpfunResponse(snap))
		},
	}
}

func newProgramCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "program",
		Short: "Read the configured on-chain program once and print the /api/tokens body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			inspector, err := newInspector(opts.cfg, opts.logger)
			if err != nil {
				return err
			}

			report, err := inspector.Inspect(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.NewTokensResponse(report))
		},
	}
	cmd.AddCommand(newProgramWatchCmd(opts))
	return cmd
}

// accountUpdate is one line of `program watch` output.
type accountUpdate struct {
	Slot uint64 `json:"slot"`
	api.AccountSummary
}

func newProgramWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream account changes for the configured program as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := opts.cfg.Solana
			endpoint := cfg.WSEndpoint
			if endpoint == "" {
				endpoint = solana.WSEndpoint(cfg.Endpoint)
			}

			wsCfg := solana.DefaultWSConfig()
			wsCfg.Logger = &opts.logger
			client, err := solana.NewWSClient(ctx, endpoint, &wsCfg)
			if err != nil {
				return err
			}
			defer client.Close()

			updates, err := client.SubscribeProgram(ctx, cfg.ProgramID)
			if err != nil {
				return fmt.Errorf("subscribe program: %w", err)
			}
			opts.logger.Info().Str("endpoint", endpoint).Str("program_id", cfg.ProgramID).Msg("watching program accounts")

			enc := json.NewEncoder(cmd.OutOrStdout())
			for {
				select {
				case <-ctx.Done():
					return nil
				case n, ok := <-updates:
					if !ok {
						return nil
					}
					summary := scanner.SummarizeAccount(n.Pubkey, n.Account)
					line := accountUpdate{
						Slot: n.Slot,
						AccountSummary: api.AccountSummary{
							Pubkey:   summary.Pubkey,
							Lamports: summary.Lamports,
							DataSize: summary.DataSize,
							PDA:      summary.PDA,
						},
					}
					if err := enc.Encode(line); err != nil {
						return err
					}
				}
			}
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

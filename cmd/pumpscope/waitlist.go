package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newWaitlistCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waitlist",
		Short: "Inspect or modify the email waitlist",
	}

	cmd.PersistentFlags().String("waitlist-driver", "", "waitlist backend: memory, file, sqlite, postgres")
	cmd.PersistentFlags().String("waitlist-path", "", "waitlist file or sqlite database path")

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of waitlist entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			svc, closeStore, err := newWaitlistService(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			count, err := svc.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <email>...",
		Short: "Add one or more emails to the waitlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			svc, closeStore, err := newWaitlistService(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, raw := range args {
				res, err := svc.Submit(ctx, raw)
				if err != nil {
					return fmt.Errorf("%s: %w", raw, err)
				}
				status := "added"
				if !res.Added {
					status = "already on waitlist"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (count %d)\n", raw, status, res.Count)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print every waitlist email in insertion order as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			svc, closeStore, err := newWaitlistService(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := svc.Export(ctx)
			if err != nil {
				return err
			}
			emails := make([]string, len(entries))
			for i, e := range entries {
				emails[i] = e.Email
			}
			return printJSON(cmd.OutOrStdout(), emails)
		},
	})

	return cmd
}

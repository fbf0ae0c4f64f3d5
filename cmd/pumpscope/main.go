// Package main provides the pumpscope command: the API server plus one-shot
// scan, program and waitlist commands sharing the same configuration.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pumpscope/internal/config"
	"pumpscope/internal/observability"
)

// rootOptions holds persistent flag values and the resolved configuration.
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pumpscope",
		Short: "Token launch scanner, program reader and waitlist API",
		Long: `pumpscope serves risk-scored Pump.fun launch listings, a read-only view of an
on-chain Solana program and an email waitlist.

Running without a subcommand starts the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (json, console)")

	serve := newServeCmd(opts)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newScanCmd(opts))
	root.AddCommand(newProgramCmd(opts))
	root.AddCommand(newWaitlistCmd(opts))

	return root
}

// load resolves configuration: .env, then YAML, then environment, then flags.
func (o *rootOptions) load(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(o.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	applyServeFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

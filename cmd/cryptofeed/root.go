package main

import (
	"fmt"
	"log/slog"

	"github.com/deusflow/cryptofeed/internal/config"
	"github.com/deusflow/cryptofeed/internal/logger"
	"github.com/spf13/cobra"
)

// cli holds what PersistentPreRunE prepared for the subcommands.
type cli struct {
	dryRun  bool
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "cryptofeed",
		Short: "Crypto news to Telegram, translated",
		Long: `cryptofeed reads crypto news feeds, summarizes and translates the most
relevant fresh items, and posts them to a Telegram channel. Once a day it also
posts a market snapshot.

Example usage:
  cryptofeed run               # One cycle, for cron or CI
  cryptofeed serve             # Poll every POLL_INTERVAL until stopped
  cryptofeed run --dry-run     # Log messages instead of sending
  cryptofeed state             # Show the publication record
  cryptofeed snapshot          # Print today's market snapshot`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	root.PersistentFlags().BoolVar(&c.dryRun, "dry-run", false, "log messages instead of sending them")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCmd(c),
		newServeCmd(c),
		newStateCmd(c),
		newSnapshotCmd(c),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg
	c.logger = logger.Init(cfg.LogLevel, cfg.Debug || c.verbose)
	c.logger.Debug("configuration loaded",
		"state_backend", cfg.StateBackend,
		"max_posts", cfg.MaxPostsPerRun,
		"daily_hour", cfg.DailyHour,
		"timezone", cfg.Timezone,
	)
	return nil
}

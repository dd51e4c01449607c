package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deusflow/cryptofeed/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a cycle every POLL_INTERVAL until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := app.Build(ctx, c.cfg, app.Options{DryRun: c.dryRun}, c.logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			if c.cfg.Monitoring {
				srv := &http.Server{
					Addr:              ":" + c.cfg.MonitoringPort,
					Handler:           rt.Metrics.Handler(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					c.logger.Info("📈 monitoring server started", "port", c.cfg.MonitoringPort)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						c.logger.Error("monitoring server error", "err", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			ticker := time.NewTicker(c.cfg.PollInterval)
			defer ticker.Stop()
			c.logger.Info("⏱️ polling", "interval", c.cfg.PollInterval)

			for {
				if _, err := rt.Coordinator.Run(ctx); err != nil {
					c.logger.Error("run aborted", "err", err)
				}
				rt.Translator.Cleanup()

				select {
				case <-ctx.Done():
					c.logger.Info("👋 shutting down")
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}

package main

import (
	"github.com/deusflow/cryptofeed/internal/app"
	"github.com/spf13/cobra"
)

func newRunCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one publish cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := app.Build(ctx, c.cfg, app.Options{DryRun: c.dryRun}, c.logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.Coordinator.Run(ctx)
			if err != nil {
				return err
			}
			return report.SaveErr
		},
	}
}

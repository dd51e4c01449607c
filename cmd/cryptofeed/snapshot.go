package main

import (
	"fmt"

	"github.com/deusflow/cryptofeed/internal/app"
	"github.com/deusflow/cryptofeed/internal/market"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(c *cli) *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compose the daily market snapshot",
		Long: `Compose the daily market snapshot and print it. With --publish it is
also sent to the channel; the publication record is not touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			msg, err := market.NewSnapshot(c.cfg.Coins, c.cfg.ChannelHandle, "").Compose(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
			if !publish {
				return nil
			}
			return app.NewPublisher(c.cfg, c.dryRun, c.logger).Publish(ctx, msg)
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "send the snapshot to the channel")
	return cmd
}

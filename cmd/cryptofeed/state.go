package main

import (
	"encoding/json"
	"fmt"

	"github.com/deusflow/cryptofeed/internal/app"
	"github.com/spf13/cobra"
)

func newStateCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the stored publication record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := app.OpenStore(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			rec, err := store.Load(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			last := rec.LastDailySummary
			if last == "" {
				last = "never"
			}
			fmt.Fprintf(out, "backend:        %s\n", c.cfg.StateBackend)
			fmt.Fprintf(out, "published ids:  %d (capacity %d)\n", len(rec.Published), c.cfg.DedupCapacity)
			fmt.Fprintf(out, "last daily:     %s\n", last)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full record as JSON")
	return cmd
}

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

func newSyncCommand() *cobra.Command {
	var f market.SyncFilter

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch live prices once and upsert them",
		Example: `  mandi-price-sync sync
  mandi-price-sync sync --state Punjab --crop Wheat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()

			report := c.service.Sync(cmd.Context(), f)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&f.State, "state", "", "only sync this state")
	cmd.Flags().StringVar(&f.District, "district", "", "only sync this district")
	cmd.Flags().StringVar(&f.Crop, "crop", "", "only sync this crop")
	cmd.Flags().IntVar(&f.Limit, "limit", market.DefaultFetchLimit, "maximum records requested from the API")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/i474232898/mandi-price-sync/internal/market"
	"github.com/i474232898/mandi-price-sync/internal/seed"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample price catalogue into the store",
		Long: `Seed upserts a fixed catalogue of sample prices dated today. Running it
again updates the same rows instead of adding duplicates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()

			report := c.service.BulkWrite(cmd.Context(), seed.Entries(), market.SourceSeed)
			c.log.Info().
				Int("created", report.Created).
				Int("updated", report.Updated).
				Int("errors", len(report.Errors)).
				Msg("seed finished")
			return nil
		},
	}
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mandi-price-sync",
		Short: "Agricultural market price aggregation service",
		Long: `mandi-price-sync pulls daily crop prices from the government market
price API, normalizes them and keeps one row per crop, market and day.

Configuration is read from the environment (and a .env file if present).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newSeedCommand())
	return cmd
}

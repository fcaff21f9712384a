package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/mandi-price-sync/internal/api/http"
	"github.com/i474232898/mandi-price-sync/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background sync scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	c, err := build(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	sched := scheduler.New(c.cfg.SyncStates, c.cfg.SyncInterval, c.service,
		c.log.With().Str("component", "scheduler").Logger())
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(c.service, c.metrics, c.log.With().Str("component", "http").Logger())

	errCh := make(chan error, 1)
	go func() {
		c.log.Info().Str("port", c.cfg.Port).Msg("http server listening")
		errCh <- app.Listen(":" + c.cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("http server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		c.log.Error().Err(err).Msg("error during shutdown")
	}
	return nil
}

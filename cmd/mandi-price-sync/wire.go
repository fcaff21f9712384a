package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/i474232898/mandi-price-sync/internal/config"
	"github.com/i474232898/mandi-price-sync/internal/logging"
	"github.com/i474232898/mandi-price-sync/internal/market"
	"github.com/i474232898/mandi-price-sync/internal/market/providers"
	"github.com/i474232898/mandi-price-sync/internal/metrics"
	"github.com/i474232898/mandi-price-sync/internal/store"
)

// components is everything a command needs, built once from config.
type components struct {
	cfg     *config.AppConfig
	log     zerolog.Logger
	metrics *metrics.Metrics
	service *market.Service
	close   func()
}

func build(ctx context.Context) (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	m := metrics.New()

	priceStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var primary market.Provider = providers.NewDataGovProvider(httpClient, "primary", cfg.MarketAPIBaseURL, cfg.MarketAPIKey)
	if cfg.FetchCacheTTL > 0 {
		primary = providers.NewCachedProvider(primary, cfg.FetchCacheTTL)
	}

	fetchOpts := []market.FetcherOption{
		market.WithFetchTimeout(cfg.HTTPTimeout),
		market.WithFetchLogger(log.With().Str("component", "fetcher").Logger()),
		market.WithFetchMetrics(m),
	}
	if cfg.MarketAPIAltURL != "" {
		alt := providers.NewDataGovProvider(httpClient, "alternate", cfg.MarketAPIAltURL, cfg.MarketAPIKey)
		fetchOpts = append(fetchOpts, market.WithAlternate(alt))
	}
	if cfg.MarketAPIKey == "" {
		log.Warn().Msg("MARKET_API_KEY not set; live fetches will fail and reads fall back to the database")
	}

	fetcher := market.NewFetcher(primary, fetchOpts...)
	syncer := market.NewSynchronizer(priceStore,
		market.WithLocation(cfg.Location),
		market.WithConcurrency(cfg.SyncConcurrency),
		market.WithSyncLogger(log.With().Str("component", "sync").Logger()),
		market.WithSyncMetrics(m),
	)
	service := market.NewService(priceStore, fetcher, syncer,
		market.WithServiceLogger(log.With().Str("component", "service").Logger()),
		market.WithServiceMetrics(m),
	)

	return &components{
		cfg:     cfg,
		log:     log,
		metrics: m,
		service: service,
		close:   closeStore,
	}, nil
}

// openStore picks Postgres when DATABASE_URL is set, memory otherwise.
func openStore(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (market.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("DATABASE_URL not set; using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	pg := store.NewPostgresStore(pool, cfg.Location)
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	log.Info().Msg("connected to postgres")
	return pg, pg.Close, nil
}

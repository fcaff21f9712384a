package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/mandi-price-sync/internal/market"
	"github.com/i474232898/mandi-price-sync/internal/market/providers"
)

var validate = validator.New()

type AppConfig struct {
	MarketAPIKey     string
	MarketAPIBaseURL string `validate:"required,url"`
	// MarketAPIAltURL is tried once when the primary endpoint fails.
	MarketAPIAltURL string `validate:"omitempty,url"`

	// HTTPTimeout bounds each outbound market API call.
	HTTPTimeout time.Duration `validate:"gt=0"`
	// FetchCacheTTL memoizes live payloads; 0 disables the cache.
	FetchCacheTTL time.Duration `validate:"gte=0"`

	// DatabaseURL selects the Postgres store; empty means in-memory.
	DatabaseURL string
	DBMaxConns  int `validate:"gte=0"`

	// SyncInterval schedules background syncs; 0 disables them.
	SyncInterval    time.Duration `validate:"gte=0"`
	SyncStates      []string
	SyncConcurrency int `validate:"gte=1"`

	// Location defines what a calendar day is for day buckets.
	Location *time.Location `validate:"required"`

	LogLevel  string
	LogFormat string `validate:"oneof=json console"`

	Port string `validate:"required,numeric"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		MarketAPIKey:     os.Getenv("MARKET_API_KEY"),
		MarketAPIBaseURL: getenvDefault("MARKET_API_BASE_URL", providers.DefaultBaseURL),
		MarketAPIAltURL:  os.Getenv("MARKET_API_ALT_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       getenvInt("DB_MAX_CONNS", 10),
		SyncConcurrency:  getenvInt("SYNC_CONCURRENCY", 1),
		SyncStates:       splitList(os.Getenv("SYNC_STATES")),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
		LogFormat:        strings.ToLower(getenvDefault("LOG_FORMAT", "json")),
		Port:             getenvDefault("PORT", "8080"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("MARKET_API_TIMEOUT", market.DefaultFetchTimeout); err != nil {
		return nil, err
	}
	if cfg.FetchCacheTTL, err = getenvDuration("MARKET_API_CACHE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = getenvDuration("SYNC_INTERVAL", 0); err != nil {
		return nil, err
	}

	tz := getenvDefault("MARKET_TIMEZONE", "Asia/Kolkata")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid MARKET_TIMEZONE: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitList splits a comma list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package market

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/mandi-price-sync/internal/metrics"
)

const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultFetchLimit   = 100
)

// Fetcher pulls live prices from the primary provider, falling back once to
// an alternate. It never returns an error: any failure yields an empty result
// so that callers can fall back to stored data.
type Fetcher struct {
	primary   Provider
	alternate Provider
	timeout   time.Duration
	now       func() time.Time
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithAlternate sets the provider tried once after the primary fails.
func WithAlternate(p Provider) FetcherOption {
	return func(f *Fetcher) { f.alternate = p }
}

// WithFetchTimeout bounds each provider call.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = l }
}

// WithFetchMetrics records provider outcomes.
func WithFetchMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// WithFetchClock overrides the clock used to stamp fetched records.
func WithFetchClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a Fetcher around the primary provider.
func NewFetcher(primary Provider, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		primary: primary,
		timeout: DefaultFetchTimeout,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns normalized candidates for the filter, or nil if no provider
// produced a payload.
func (f *Fetcher) Fetch(ctx context.Context, filter Filter) []PriceObservation {
	if f == nil {
		return nil
	}
	filter = cleanFilter(filter)

	body, err := f.try(ctx, f.primary, filter)
	if err != nil && f.alternate != nil {
		f.log.Warn().Err(err).Str("provider", providerName(f.primary)).
			Msg("primary market source failed; trying alternate")
		body, err = f.try(ctx, f.alternate, filter)
	}
	if err != nil {
		f.log.Error().Err(err).Msg("market source unavailable; returning no live data")
		return nil
	}

	records := ExtractJSON(body)
	candidates := Normalize(records, f.now())
	f.log.Debug().
		Int("raw", len(records)).
		Int("accepted", len(candidates)).
		Msg("fetched live market prices")
	return candidates
}

func (f *Fetcher) try(ctx context.Context, p Provider, filter Filter) ([]byte, error) {
	if p == nil {
		return nil, ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := p.FetchPayload(ctx, filter)
	if err != nil {
		f.metrics.Fetch(p.Name(), "error")
		return nil, err
	}
	f.metrics.Fetch(p.Name(), "ok")
	return body, nil
}

// cleanFilter trims dimension values and applies paging defaults.
func cleanFilter(f Filter) Filter {
	f.State = strings.TrimSpace(f.State)
	f.District = strings.TrimSpace(f.District)
	f.Crop = strings.TrimSpace(f.Crop)
	f.Market = strings.TrimSpace(f.Market)
	if f.Limit <= 0 {
		f.Limit = DefaultFetchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func providerName(p Provider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/mandi-price-sync/internal/metrics"
)

// Synchronizer writes batches of observations into a Store, one row per
// day-bucket key. Items are independent: a failing item is reported and the
// rest of the batch carries on.
type Synchronizer struct {
	store       Store
	loc         *time.Location
	now         func() time.Time
	concurrency int
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithLocation sets the time zone that defines a calendar day.
func WithLocation(loc *time.Location) SyncOption {
	return func(s *Synchronizer) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SyncOption {
	return func(s *Synchronizer) { s.now = now }
}

// WithConcurrency lets up to n items be written at once. Same-key writes stay
// serialized by the store's atomic upsert.
func WithConcurrency(n int) SyncOption {
	return func(s *Synchronizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSyncLogger sets the logger.
func WithSyncLogger(l zerolog.Logger) SyncOption {
	return func(s *Synchronizer) { s.log = l }
}

// WithSyncMetrics records per-item outcomes.
func WithSyncMetrics(m *metrics.Metrics) SyncOption {
	return func(s *Synchronizer) { s.metrics = m }
}

// NewSynchronizer creates a Synchronizer writing to store.
func NewSynchronizer(store Store, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		store:       store,
		loc:         time.UTC,
		now:         time.Now,
		concurrency: 1,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone used for day buckets.
func (s *Synchronizer) Location() *time.Location {
	return s.loc
}

type itemOutcome struct {
	created bool
	err     error
}

// Apply upserts every candidate, tagging the stored rows with source.
// An empty batch reports Success=false so callers can tell "nothing to sync"
// apart from "everything failed".
func (s *Synchronizer) Apply(ctx context.Context, candidates []PriceObservation, source Source) SyncReport {
	if len(candidates) == 0 {
		return SyncReport{
			Success: false,
			Message: "no data available",
			Errors:  []ItemError{},
		}
	}
	s.metrics.Batch(len(candidates))

	outcomes := make([]itemOutcome, len(candidates))

	if s.concurrency <= 1 {
		for i, c := range candidates {
			outcomes[i] = s.applyOne(ctx, c, source)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for i, c := range candidates {
			i, c := i, c
			g.Go(func() error {
				outcomes[i] = s.applyOne(ctx, c, source)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := SyncReport{
		Success: true,
		Total:   len(candidates),
		Errors:  []ItemError{},
	}
	for i, out := range outcomes {
		switch {
		case out.err != nil:
			item := candidates[i]
			if !validPrice(item.Price) {
				// NaN and Inf have no JSON encoding.
				item.Price = 0
			}
			report.Errors = append(report.Errors, ItemError{Item: item, Error: out.err.Error()})
		case out.created:
			report.Created++
		default:
			report.Updated++
		}
	}
	report.Message = fmt.Sprintf("sync complete: %d created, %d updated, %d failed",
		report.Created, report.Updated, len(report.Errors))

	s.log.Info().
		Str("source", string(source)).
		Int("total", report.Total).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("errors", len(report.Errors)).
		Msg("price batch applied")

	return report
}

func (s *Synchronizer) applyOne(ctx context.Context, c PriceObservation, source Source) (out itemOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = itemOutcome{err: fmt.Errorf("upsert panicked: %v", r)}
		}
		result := "updated"
		switch {
		case out.err != nil:
			result = "error"
		case out.created:
			result = "created"
		}
		s.metrics.Upsert(string(source), result)
	}()

	_, created, err := s.Upsert(ctx, c, source)
	return itemOutcome{created: created, err: err}
}

// Upsert writes a single observation through the same day-bucket resolution
// used for batches and returns the stored row.
func (s *Synchronizer) Upsert(ctx context.Context, c PriceObservation, source Source) (PriceObservation, bool, error) {
	if err := ctx.Err(); err != nil {
		return PriceObservation{}, false, err
	}

	if !validPrice(c.Price) {
		return PriceObservation{}, false, fmt.Errorf("%w: invalid price %v", ErrInvalidEntry, c.Price)
	}

	obs := s.prepare(c, source)
	stored, created, err := s.store.Upsert(ctx, obs)
	if err != nil {
		s.log.Warn().Err(err).Str("key", obs.Key(s.loc).String()).Msg("price upsert failed")
		return PriceObservation{}, false, err
	}
	return stored, created, nil
}

// prepare canonicalizes the dimensions and pins the date to its day start.
func (s *Synchronizer) prepare(c PriceObservation, source Source) PriceObservation {
	obs := canonicalizeObservation(c)
	now := s.now()
	if obs.Date.IsZero() {
		obs.Date = now
	}
	obs.Date = DayStart(obs.Date, s.loc)
	if !obs.Unit.Valid() {
		obs.Unit = UnitQuintal
	}
	obs.LastUpdated = now
	obs.Source = source
	return obs
}

package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/mandi-price-sync/internal/common"
	"github.com/i474232898/mandi-price-sync/internal/metrics"
)

// MaxQueryRows caps every database-tier answer.
const MaxQueryRows = 100

// LiveSource yields normalized live prices; *Fetcher is the production one.
type LiveSource interface {
	Fetch(ctx context.Context, f Filter) []PriceObservation
}

// Service orchestrates live fetches, the store and synchronization.
type Service struct {
	store   Store
	live    LiveSource
	syncer  *Synchronizer
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock overrides time.Now for the "today" default.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithServiceMetrics records which tier answered each query.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new Service. live may be nil, in which case every
// query is answered from the store.
func NewService(store Store, live LiveSource, syncer *Synchronizer, opts ...ServiceOption) *Service {
	if syncer == nil {
		syncer = NewSynchronizer(store)
	}
	s := &Service{
		store:  store,
		live:   live,
		syncer: syncer,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone that defines a calendar day.
func (s *Service) Location() *time.Location {
	return s.syncer.Location()
}

// Query answers a price read. With preferRealtime it first asks the live
// source and returns its records when there are any; otherwise it reads the
// store for the requested day (today if none). It never fails: a store error
// is logged and yields an empty database result.
func (s *Service) Query(ctx context.Context, f QueryFilter, preferRealtime bool) QueryResult {
	if preferRealtime && s.live != nil {
		live := s.live.Fetch(ctx, Filter{
			State:    f.State,
			District: f.District,
			Crop:     f.Crop,
			Market:   f.Market,
		})
		if len(live) > 0 {
			s.metrics.Query(string(SourceExternalAPI))
			return QueryResult{Records: live, Source: SourceExternalAPI}
		}
		s.log.Debug().Msg("no live prices; falling back to database")
	}

	day := s.now()
	if f.Date != nil {
		day = *f.Date
	}
	from := DayStart(day, s.syncer.Location())

	q := StoreQuery{
		State:    strings.TrimSpace(f.State),
		District: strings.TrimSpace(f.District),
		Crop:     strings.TrimSpace(f.Crop),
		Market:   strings.TrimSpace(f.Market),
		From:     from,
		To:       from.AddDate(0, 0, 1),
		Limit:    MaxQueryRows,
	}

	records, err := s.store.Find(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Msg("database price query failed")
		records = nil
	}
	if records == nil {
		records = []PriceObservation{}
	}
	s.metrics.Query(string(SourceDatabase))
	return QueryResult{Records: records, Source: SourceDatabase}
}

// Realtime returns live prices without storing them.
func (s *Service) Realtime(ctx context.Context, f Filter) []PriceObservation {
	if s.live == nil {
		return []PriceObservation{}
	}
	records := s.live.Fetch(ctx, f)
	if records == nil {
		records = []PriceObservation{}
	}
	return records
}

// Sync fetches live prices for the filter and upserts them as external_api.
func (s *Service) Sync(ctx context.Context, f SyncFilter) SyncReport {
	var candidates []PriceObservation
	if s.live != nil {
		candidates = s.live.Fetch(ctx, Filter{
			State:    f.State,
			District: f.District,
			Crop:     f.Crop,
			Limit:    f.Limit,
		})
	}
	report := s.syncer.Apply(ctx, candidates, SourceExternalAPI)
	if len(candidates) == 0 {
		report.Message = "no data available from external source"
	}
	return report
}

// Save validates and upserts a single hand-entered price. created reports
// whether a new row was inserted.
func (s *Service) Save(ctx context.Context, e Entry) (PriceObservation, bool, error) {
	obs, err := s.entryToObservation(e)
	if err != nil {
		return PriceObservation{}, false, err
	}
	return s.syncer.Upsert(ctx, obs, SourceManual)
}

// BulkWrite upserts many entries. Entries that fail validation are reported
// alongside store failures and never stop the batch.
func (s *Service) BulkWrite(ctx context.Context, entries []Entry, source Source) SyncReport {
	if source == "" {
		source = SourceManual
	}

	var (
		valid   []PriceObservation
		invalid []ItemError
	)
	for _, e := range entries {
		obs, err := s.entryToObservation(e)
		if err != nil {
			invalid = append(invalid, ItemError{Item: e, Error: err.Error()})
			continue
		}
		valid = append(valid, obs)
	}

	report := s.syncer.Apply(ctx, valid, source)
	report.Total = len(entries)
	report.Errors = append(invalid, report.Errors...)
	if len(entries) > 0 {
		report.Success = true
		report.Message = fmt.Sprintf("bulk operation completed: %d created, %d updated",
			report.Created, report.Updated)
	}
	return report
}

func (s *Service) entryToObservation(e Entry) (PriceObservation, error) {
	if common.IsPlaceholder(e.Crop) || common.IsPlaceholder(e.State) ||
		common.IsPlaceholder(e.District) || common.IsPlaceholder(e.Market) || e.Price == 0 {
		return PriceObservation{}, fmt.Errorf("%w: missing required fields", ErrInvalidEntry)
	}
	if !validPrice(e.Price) {
		return PriceObservation{}, fmt.Errorf("%w: invalid price", ErrInvalidEntry)
	}

	unit := UnitQuintal
	if e.Unit != "" {
		unit = ParseUnit(string(e.Unit))
	}

	date := s.now()
	if e.Date != nil && !e.Date.IsZero() {
		date = *e.Date
	}

	return PriceObservation{
		Crop:     e.Crop,
		State:    e.State,
		District: e.District,
		Market:   e.Market,
		Price:    e.Price,
		Unit:     unit,
		Date:     date,
	}, nil
}

// States lists every stored state.
func (s *Service) States(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, FieldState, StoreQuery{})
}

// Districts lists stored districts of states matching state.
func (s *Service) Districts(ctx context.Context, state string) ([]string, error) {
	return s.distinct(ctx, FieldDistrict, StoreQuery{State: strings.TrimSpace(state)})
}

// Crops lists every stored crop.
func (s *Service) Crops(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, FieldCrop, StoreQuery{})
}

// Markets lists stored markets, optionally narrowed by state and district.
func (s *Service) Markets(ctx context.Context, state, district string) ([]string, error) {
	return s.distinct(ctx, FieldMarket, StoreQuery{
		State:    strings.TrimSpace(state),
		District: strings.TrimSpace(district),
	})
}

// StatesWithDistricts maps each stored state to its sorted districts.
func (s *Service) StatesWithDistricts(ctx context.Context) (map[string][]string, error) {
	states, err := s.States(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(states))
	for _, st := range states {
		districts, err := s.distinct(ctx, FieldDistrict, StoreQuery{State: st, ExactState: true})
		if err != nil {
			return nil, fmt.Errorf("districts of %s: %w", st, err)
		}
		out[st] = districts
	}
	return out, nil
}

func (s *Service) distinct(ctx context.Context, field Field, where StoreQuery) ([]string, error) {
	values, err := s.store.Distinct(ctx, field, where)
	if err != nil {
		return nil, err
	}
	sort.Strings(values)
	if values == nil {
		values = []string{}
	}
	return values, nil
}

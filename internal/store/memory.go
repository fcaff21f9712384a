package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

var (
	// ErrUnknownField is returned for a distinct lookup on an unsupported column.
	ErrUnknownField = errors.New("unknown price field")
)

// MemoryStore is a concurrency-safe in-memory implementation of market.Store.
// One mutex guards lookup and write together, so an upsert can never insert
// a second row for a day-bucket key.
type MemoryStore struct {
	mu sync.RWMutex

	// key: day-bucket key, value: stored row
	rows map[string]*market.PriceObservation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]*market.PriceObservation),
	}
}

// Upsert inserts obs or updates the row sharing its day-bucket key.
// obs.Date must already be pinned to its day start.
func (s *MemoryStore) Upsert(ctx context.Context, obs market.PriceObservation) (market.PriceObservation, bool, error) {
	if err := ctx.Err(); err != nil {
		return market.PriceObservation{}, false, err
	}
	key := obs.Key(obs.Date.Location()).String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.rows[key]; ok {
		existing.Price = obs.Price
		existing.Unit = obs.Unit
		existing.LastUpdated = obs.LastUpdated
		existing.Source = obs.Source
		return *existing, false, nil
	}

	row := obs
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	s.rows[key] = &row
	return row, true, nil
}

// Find returns rows matching q, newest day first, then highest price, then
// by ID.
func (s *MemoryStore) Find(ctx context.Context, q market.StoreQuery) ([]market.PriceObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var result []market.PriceObservation
	for _, row := range s.rows {
		if matches(row, q) {
			result = append(result, *row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		if result[i].Price != result[j].Price {
			return result[i].Price > result[j].Price
		}
		return result[i].ID < result[j].ID
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// Distinct returns the unique values of field among rows matching where.
// The date window of where is ignored when unset.
func (s *MemoryStore) Distinct(ctx context.Context, field market.Field, where market.StoreQuery) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	get, ok := fieldGetters[field]
	if !ok {
		return nil, ErrUnknownField
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	values := []string{}
	for _, row := range s.rows {
		if !matches(row, where) {
			continue
		}
		v := get(row)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values, nil
}

// Len reports how many rows are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

var fieldGetters = map[market.Field]func(*market.PriceObservation) string{
	market.FieldState:    func(p *market.PriceObservation) string { return p.State },
	market.FieldDistrict: func(p *market.PriceObservation) string { return p.District },
	market.FieldCrop:     func(p *market.PriceObservation) string { return p.Crop },
	market.FieldMarket:   func(p *market.PriceObservation) string { return p.Market },
}

func matches(row *market.PriceObservation, q market.StoreQuery) bool {
	if q.ExactState && q.State != "" && row.State != q.State {
		return false
	}
	if !containsFold(row.State, q.State) ||
		!containsFold(row.District, q.District) ||
		!containsFold(row.Crop, q.Crop) ||
		!containsFold(row.Market, q.Market) {
		return false
	}
	if !q.From.IsZero() && row.Date.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !row.Date.Before(q.To) {
		return false
	}
	return true
}

// containsFold reports whether sub occurs in s ignoring case. An empty sub
// matches everything.
func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

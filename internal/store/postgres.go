package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

// Schema creates the price table and its indexes. The unique index on the
// day-bucket key is what makes Upsert atomic.
const Schema = `
CREATE TABLE IF NOT EXISTS market_prices (
	id           TEXT PRIMARY KEY,
	crop         TEXT NOT NULL,
	state        TEXT NOT NULL,
	district     TEXT NOT NULL,
	market       TEXT NOT NULL,
	price        DOUBLE PRECISION NOT NULL CHECK (price > 0 AND price < 'Infinity'),
	unit         TEXT NOT NULL DEFAULT 'Quintal' CHECK (unit IN ('Quintal', 'Kg', 'Ton')),
	day          DATE NOT NULL,
	date         TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	source       TEXT NOT NULL CHECK (source IN ('manual', 'external_api', 'seed')),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS market_prices_day_bucket_idx
	ON market_prices (crop, state, district, market, day);
CREATE INDEX IF NOT EXISTS market_prices_state_district_date_idx
	ON market_prices (state, district, date DESC);
CREATE INDEX IF NOT EXISTS market_prices_crop_date_idx
	ON market_prices (crop, date DESC);
`

const upsertSQL = `
INSERT INTO market_prices (id, crop, state, district, market, price, unit, day, date, last_updated, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (crop, state, district, market, day) DO UPDATE
SET price = EXCLUDED.price,
	unit = EXCLUDED.unit,
	last_updated = EXCLUDED.last_updated,
	source = EXCLUDED.source
RETURNING id, crop, state, district, market, price, unit, date, last_updated, source, (xmax = 0) AS inserted`

const selectColumns = `id, crop, state, district, market, price, unit, date, last_updated, source`

// findOrder matches MemoryStore.Find.
const findOrder = ` ORDER BY date DESC, price DESC, id`

// columns maps a market.Field to its column; it doubles as an allow-list for
// identifiers interpolated into SQL.
var columns = map[market.Field]string{
	market.FieldState:    "state",
	market.FieldDistrict: "district",
	market.FieldCrop:     "crop",
	market.FieldMarket:   "market",
}

// PostgresStore implements market.Store on PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresStore wraps pool. Dates read back are converted to loc.
func NewPostgresStore(pool *pgxpool.Pool, loc *time.Location) *PostgresStore {
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresStore{pool: pool, loc: loc}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Upsert inserts obs or updates the row sharing its day-bucket key in a
// single statement.
func (s *PostgresStore) Upsert(ctx context.Context, obs market.PriceObservation) (market.PriceObservation, bool, error) {
	id := obs.ID
	if id == "" {
		id = uuid.NewString()
	}
	y, m, d := obs.Date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	row := s.pool.QueryRow(ctx, upsertSQL,
		id, obs.Crop, obs.State, obs.District, obs.Market,
		obs.Price, string(obs.Unit), day, obs.Date, obs.LastUpdated, string(obs.Source),
	)

	var inserted bool
	stored, err := s.scan(row, &inserted)
	if err != nil {
		return market.PriceObservation{}, false, fmt.Errorf("upsert price: %w", err)
	}
	return stored, inserted, nil
}

// Find returns rows matching q, newest day first, then highest price, then
// by ID.
func (s *PostgresStore) Find(ctx context.Context, q market.StoreQuery) ([]market.PriceObservation, error) {
	where, args := buildWhere(q)
	sql := "SELECT " + selectColumns + " FROM market_prices" + where + findOrder
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var result []market.PriceObservation
	for rows.Next() {
		obs, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		result = append(result, obs)
	}
	return result, rows.Err()
}

// Distinct returns the unique values of field among rows matching where.
func (s *PostgresStore) Distinct(ctx context.Context, field market.Field, where market.StoreQuery) ([]string, error) {
	sql, args, err := buildDistinct(field, where)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", field, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect distinct %s: %w", field, err)
	}
	return values, nil
}

func (s *PostgresStore) scan(row pgx.Row, extra ...any) (market.PriceObservation, error) {
	var (
		obs          market.PriceObservation
		unit, source string
	)
	dest := []any{
		&obs.ID, &obs.Crop, &obs.State, &obs.District, &obs.Market,
		&obs.Price, &unit, &obs.Date, &obs.LastUpdated, &source,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return market.PriceObservation{}, err
	}
	obs.Unit = market.Unit(unit)
	obs.Source = market.Source(source)
	obs.Date = obs.Date.In(s.loc)
	obs.LastUpdated = obs.LastUpdated.In(s.loc)
	return obs, nil
}

func buildDistinct(field market.Field, where market.StoreQuery) (string, []any, error) {
	col, ok := columns[field]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	clause, args := buildWhere(where)
	return "SELECT DISTINCT " + col + " FROM market_prices" + clause + " ORDER BY 1", args, nil
}

// buildWhere turns q into a WHERE clause with positional arguments. Every
// dimension is a case-insensitive substring match.
func buildWhere(q market.StoreQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	like := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, "%"+escapeLike(v)+"%")
		conds = append(conds, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, col, len(args)))
	}
	if q.ExactState && q.State != "" {
		args = append(args, q.State)
		conds = append(conds, fmt.Sprintf("state = $%d", len(args)))
	} else {
		like("state", q.State)
	}
	like("district", q.District)
	like("crop", q.Crop)
	like("market", q.Market)

	if !q.From.IsZero() {
		args = append(args, q.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		conds = append(conds, fmt.Sprintf("date < $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike makes user text literal inside an ILIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

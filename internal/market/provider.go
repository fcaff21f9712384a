package market

import (
	"context"
)

// Provider abstracts an external market-data endpoint. It returns the raw
// response body; envelope handling is done by Extract.
type Provider interface {
	Name() string
	FetchPayload(ctx context.Context, f Filter) ([]byte, error)
}

// Store is the contract the memory and Postgres stores satisfy.
//
// Upsert must be atomic per day-bucket key: it either inserts obs or
// overwrites price, unit, last-updated time and source of the row sharing
// its key, leaving that row's ID and Date untouched. created reports which.
type Store interface {
	Upsert(ctx context.Context, obs PriceObservation) (stored PriceObservation, created bool, err error)
	Find(ctx context.Context, q StoreQuery) ([]PriceObservation, error)
	Distinct(ctx context.Context, field Field, where StoreQuery) ([]string, error)
}

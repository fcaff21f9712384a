package market

import "errors"

var (
	// ErrRateLimited is returned by providers when the source answers 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnexpectedStatus wraps any other non-2xx answer.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrCircuitOpen is returned while a provider's breaker refuses calls.
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrNoProvider means the fetcher has nothing to call.
	ErrNoProvider = errors.New("no market data provider configured")
	// ErrInvalidEntry marks a manual entry that cannot be stored.
	ErrInvalidEntry = errors.New("invalid price entry")
)

package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) FetchPayload(context.Context, market.Filter) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []byte(`{"records":[]}`), nil
}

func TestCachedProviderMemoizesByFilter(t *testing.T) {
	next := &countingProvider{}
	c := NewCachedProvider(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.FetchPayload(ctx, market.Filter{State: "Punjab"})
		require.NoError(t, err)
	}
	_, err := c.FetchPayload(ctx, market.Filter{State: "Kerala"})
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 2, c.ItemCount())
	assert.Equal(t, "counting", c.Name())
}

func TestCachedProviderSkipsFailures(t *testing.T) {
	next := &countingProvider{err: errors.New("down")}
	c := NewCachedProvider(next, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := c.FetchPayload(context.Background(), market.Filter{})
		assert.Error(t, err)
	}
	assert.Equal(t, 2, next.calls)
	assert.Zero(t, c.ItemCount())
}

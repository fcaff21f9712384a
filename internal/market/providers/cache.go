package providers

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

// CachedProvider memoizes successful payloads of another provider for a
// short TTL, keyed by the encoded filter. Failures are never cached.
type CachedProvider struct {
	next  market.Provider
	store *gocache.Cache
}

// NewCachedProvider wraps next with a TTL cache.
func NewCachedProvider(next market.Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		store: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedProvider) Name() string {
	return c.next.Name()
}

// FetchPayload serves from cache when possible.
func (c *CachedProvider) FetchPayload(ctx context.Context, f market.Filter) ([]byte, error) {
	key := BuildQuery("", f).Encode()
	if v, ok := c.store.Get(key); ok {
		if body, ok := v.([]byte); ok {
			return body, nil
		}
	}

	body, err := c.next.FetchPayload(ctx, f)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, body, gocache.DefaultExpiration)
	return body, nil
}

// ItemCount returns the number of cached payloads.
func (c *CachedProvider) ItemCount() int {
	return c.store.ItemCount()
}

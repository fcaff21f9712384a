package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

// DefaultBaseURL is the data.gov.in daily mandi price resource.
const DefaultBaseURL = "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070"

var errNoAPIKey = errors.New("market api key is not configured")

// DataGovProvider implements market.Provider for the data.gov.in resource API
// and any endpoint speaking the same query dialect.
type DataGovProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewDataGovProvider creates a provider for baseURL. name labels logs,
// metrics and the circuit breaker.
func NewDataGovProvider(client *http.Client, name, baseURL, apiKey string) *DataGovProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &DataGovProvider{
		name:    name,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker(name),
	}
}

func (p *DataGovProvider) Name() string {
	return p.name
}

// FetchPayload issues one GET and returns the raw body.
func (p *DataGovProvider) FetchPayload(ctx context.Context, f market.Filter) ([]byte, error) {
	if p.apiKey == "" {
		return nil, errNoAPIKey
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, BuildQuery(p.apiKey, f).Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return body, nil
}

// BuildQuery translates f into the source's query parameters. Filters are
// only sent when set: the source treats an empty filter differently from an
// absent one.
func BuildQuery(apiKey string, f market.Filter) url.Values {
	values := url.Values{}
	values.Set("api-key", apiKey)
	values.Set("format", "json")

	limit := f.Limit
	if limit <= 0 {
		limit = market.DefaultFetchLimit
	}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(max(f.Offset, 0)))

	setFilter := func(name, v string) {
		if v != "" {
			values.Set("filters["+name+"]", v)
		}
	}
	setFilter("state", f.State)
	setFilter("district", f.District)
	setFilter("commodity", f.Crop)
	setFilter("market", f.Market)

	return values
}

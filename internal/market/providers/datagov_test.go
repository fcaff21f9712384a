package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

func TestBuildQueryOmitsEmptyFilters(t *testing.T) {
	q := BuildQuery("key", market.Filter{State: "Punjab", Crop: "Wheat"})

	assert.Equal(t, "key", q.Get("api-key"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "100", q.Get("limit"))
	assert.Equal(t, "0", q.Get("offset"))
	assert.Equal(t, "Punjab", q.Get("filters[state]"))
	assert.Equal(t, "Wheat", q.Get("filters[commodity]"))
	assert.False(t, q.Has("filters[district]"))
	assert.False(t, q.Has("filters[market]"))
}

func TestFetchPayloadSendsQuery(t *testing.T) {
	queries := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	p := NewDataGovProvider(srv.Client(), "primary", srv.URL, "secret")
	body, err := p.FetchPayload(context.Background(), market.Filter{District: "Ludhiana", Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"records":[]}`, string(body))

	got := <-queries
	assert.Equal(t, "secret", got.Get("api-key"))
	assert.Equal(t, "5", got.Get("limit"))
	assert.Equal(t, "10", got.Get("offset"))
	assert.Equal(t, "Ludhiana", got.Get("filters[district]"))
	assert.False(t, got.Has("filters[state]"))
}

func TestFetchPayloadStatusErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusTooManyRequests)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	p := NewDataGovProvider(srv.Client(), "primary", srv.URL, "secret")

	_, err := p.FetchPayload(context.Background(), market.Filter{})
	assert.ErrorIs(t, err, market.ErrRateLimited)

	status.Store(http.StatusBadGateway)
	_, err = p.FetchPayload(context.Background(), market.Filter{})
	assert.ErrorIs(t, err, market.ErrUnexpectedStatus)
	assert.ErrorContains(t, err, "primary")
}

func TestFetchPayloadRequiresKey(t *testing.T) {
	p := NewDataGovProvider(http.DefaultClient, "primary", "http://127.0.0.1:1", "")
	_, err := p.FetchPayload(context.Background(), market.Filter{})
	assert.Error(t, err)
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewDataGovProvider(srv.Client(), "primary", srv.URL, "secret")
	for i := 0; i < 5; i++ {
		_, err := p.FetchPayload(context.Background(), market.Filter{})
		require.ErrorIs(t, err, market.ErrUnexpectedStatus)
	}

	_, err := p.FetchPayload(context.Background(), market.Filter{})
	assert.ErrorIs(t, err, market.ErrCircuitOpen)
	assert.EqualValues(t, 5, hits.Load())
}

func TestFetcherFallsBackAcrossEndpoints(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"records":[{"state_name":"Punjab","district_name":"Ludhiana",
			"commodity":"Wheat","market":"Khanna","modal_price":"2420"}]}}`))
	}))
	defer up.Close()

	f := market.NewFetcher(
		NewDataGovProvider(down.Client(), "primary", down.URL, "k"),
		market.WithAlternate(NewDataGovProvider(up.Client(), "alternate", up.URL, "k")),
	)
	got := f.Fetch(context.Background(), market.Filter{State: "Punjab"})
	require.Len(t, got, 1)
	assert.Equal(t, "Khanna", got[0].Market)
}

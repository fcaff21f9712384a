package market_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/mandi-price-sync/internal/market"
	"github.com/i474232898/mandi-price-sync/internal/store"
)

var (
	ist     = time.FixedZone("IST", 5*3600+1800)
	syncNow = time.Date(2024, 3, 10, 9, 0, 0, 0, ist)
)

func newSyncer(s market.Store, opts ...market.SyncOption) *market.Synchronizer {
	opts = append([]market.SyncOption{
		market.WithLocation(ist),
		market.WithClock(func() time.Time { return syncNow }),
	}, opts...)
	return market.NewSynchronizer(s, opts...)
}

func wheat(price float64) market.PriceObservation {
	return market.PriceObservation{
		Crop: "wheat", State: "PUNJAB", District: "ludhiana", Market: "khanna",
		Price: price, Unit: market.UnitQuintal, Date: syncNow,
	}
}

func TestApplyCreatesThenUpdatesSameDay(t *testing.T) {
	mem := store.NewMemoryStore()
	syncer := newSyncer(mem)
	ctx := context.Background()

	report := syncer.Apply(ctx, []market.PriceObservation{wheat(2420)}, market.SourceExternalAPI)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Updated)

	later := wheat(2500)
	later.Date = syncNow.Add(6 * time.Hour)
	report = syncer.Apply(ctx, []market.PriceObservation{later}, market.SourceExternalAPI)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Empty(t, report.Errors)

	rows, err := mem.Find(ctx, market.StoreQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2500.0, rows[0].Price)
	assert.Equal(t, "Punjab", rows[0].State)
	assert.Equal(t, "Wheat", rows[0].Crop)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, ist), rows[0].Date)
}

func TestApplyIsIdempotent(t *testing.T) {
	mem := store.NewMemoryStore()
	syncer := newSyncer(mem)
	batch := []market.PriceObservation{wheat(2420), wheat(2420)}

	first := syncer.Apply(context.Background(), batch, market.SourceExternalAPI)
	second := syncer.Apply(context.Background(), batch, market.SourceExternalAPI)

	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 1, first.Updated)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)
	assert.Equal(t, 1, mem.Len())
}

func TestApplySeparatesDaysAndMarkets(t *testing.T) {
	mem := store.NewMemoryStore()
	syncer := newSyncer(mem)

	yesterday := wheat(2400)
	yesterday.Date = syncNow.AddDate(0, 0, -1)
	otherMarket := wheat(2410)
	otherMarket.Market = "Jagraon"

	report := syncer.Apply(context.Background(),
		[]market.PriceObservation{wheat(2420), yesterday, otherMarket}, market.SourceSeed)
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 3, mem.Len())
}

func TestApplyDayBoundaryFollowsLocation(t *testing.T) {
	mem := store.NewMemoryStore()
	syncer := newSyncer(mem)

	// 20:00 and 23:00 UTC on the 9th are both the 10th in IST.
	a := wheat(1)
	a.Date = time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	b := wheat(2)
	b.Date = time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)

	report := syncer.Apply(context.Background(), []market.PriceObservation{a, b}, market.SourceExternalAPI)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
}

func TestApplyEmptyBatch(t *testing.T) {
	report := newSyncer(store.NewMemoryStore()).Apply(context.Background(), nil, market.SourceExternalAPI)
	assert.False(t, report.Success)
	assert.Equal(t, 0, report.Total)
	assert.NotNil(t, report.Errors)
	assert.Empty(t, report.Errors)
}

// flakyStore fails every upsert for one market and panics for another.
type flakyStore struct {
	*store.MemoryStore
}

func (f flakyStore) Upsert(ctx context.Context, obs market.PriceObservation) (market.PriceObservation, bool, error) {
	switch obs.Market {
	case "Broken":
		return market.PriceObservation{}, false, errors.New("disk full")
	case "Panic":
		panic("boom")
	}
	return f.MemoryStore.Upsert(ctx, obs)
}

func TestApplyIsolatesItemFailures(t *testing.T) {
	mem := store.NewMemoryStore()
	syncer := newSyncer(flakyStore{mem})

	broken := wheat(1)
	broken.Market = "broken"
	panics := wheat(2)
	panics.Market = "panic"

	report := syncer.Apply(context.Background(),
		[]market.PriceObservation{broken, wheat(2420), panics}, market.SourceExternalAPI)

	assert.True(t, report.Success)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "disk full", report.Errors[0].Error)
	assert.Contains(t, report.Errors[1].Error, "boom")
	assert.Equal(t, 1, mem.Len())
}

func TestApplyConcurrentWritersKeepOneRowPerKey(t *testing.T) {
	mem := store.NewMemoryStore()
	syncer := newSyncer(mem, market.WithConcurrency(8))

	var batch []market.PriceObservation
	for i := 0; i < 50; i++ {
		obs := wheat(float64(2000 + i))
		obs.Market = fmt.Sprintf("market %d", i%5)
		batch = append(batch, obs)
	}

	var wg sync.WaitGroup
	reports := make([]market.SyncReport, 4)
	for i := range reports {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = syncer.Apply(context.Background(), batch, market.SourceExternalAPI)
		}()
	}
	wg.Wait()

	created := 0
	for _, r := range reports {
		created += r.Created
		assert.Equal(t, 50, r.Created+r.Updated)
	}
	assert.Equal(t, 5, created)
	assert.Equal(t, 5, mem.Len())
}

func TestUpsertHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newSyncer(store.NewMemoryStore()).Upsert(ctx, wheat(1), market.SourceManual)
	assert.ErrorIs(t, err, context.Canceled)
}

package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAliasesAndDefaults(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	records := ExtractJSON([]byte(`{"records":[
		{"state":"Punjab","district":"Ludhiana","market":"Khanna","commodity":"Wheat",
		 "modal_price":"2,420","arrival_date":"09/03/2024"},
		{"state_name":"Kerala","district_name":"Kochi","mandi":"Ernakulam","crop":"Rice",
		 "price":3100.5,"unit":"Rs./Kg"},
		{"state":"Bihar","district":"Patna","commodity":"","crop":"Maize",
		 "modal_price":0,"min_price":"1800","date":"2024-03-08"}
	]}`))
	got := Normalize(records, now)
	require.Len(t, got, 3)

	assert.Equal(t, "Wheat", got[0].Crop)
	assert.Equal(t, "Khanna", got[0].Market)
	assert.Equal(t, 2420.0, got[0].Price)
	assert.Equal(t, UnitQuintal, got[0].Unit)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, SourceExternalAPI, got[0].Source)
	assert.Equal(t, now, got[0].LastUpdated)

	assert.Equal(t, "Kerala", got[1].State)
	assert.Equal(t, "Ernakulam", got[1].Market)
	assert.Equal(t, 3100.5, got[1].Price)
	assert.Equal(t, UnitKg, got[1].Unit)
	assert.Equal(t, now, got[1].Date, "missing date defaults to now")

	assert.Equal(t, "Maize", got[2].Crop, "blank alias falls through")
	assert.Equal(t, 1800.0, got[2].Price, "zero price falls through to the next alias")
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), got[2].Date)
}

func TestNormalizeDropsIncompleteRecords(t *testing.T) {
	now := time.Now()
	records := []RawRecord{
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "-5"},
		{"state": "NA", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "10"},
		{"state": "Punjab", "district": "", "commodity": "Wheat", "modal_price": "10"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "null", "modal_price": "10"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "abc"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "NaN"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "nan"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "Inf"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "+Infinity"},
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "price": math.Inf(1)},
		// Market is optional.
		{"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat", "modal_price": "10"},
	}
	got := Normalize(records, now)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Market)
}

func TestNormalizeUnparseableDateUsesNow(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := Normalize([]RawRecord{{
		"state": "Punjab", "district": "Ludhiana", "commodity": "Wheat",
		"modal_price": "10", "arrival_date": "sometime",
	}}, now)
	require.Len(t, got, 1)
	assert.Equal(t, now, got[0].Date)
}

func TestParseUnit(t *testing.T) {
	cases := map[string]Unit{
		"":            UnitQuintal,
		"Rs./Quintal": UnitQuintal,
		"QTL":         UnitQuintal,
		"kg":          UnitKg,
		"Kilogram":    UnitKg,
		"Tonne":       UnitTon,
		"MT":          UnitTon,
		"bushel":      UnitQuintal,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseUnit(in), "input %q", in)
	}
}

func TestParsePriceRejectsNonFinite(t *testing.T) {
	for _, v := range []any{"NaN", "-Inf", "Infinity", math.NaN(), math.Inf(-1)} {
		assert.Zero(t, parsePrice(v), "value %v", v)
	}
	assert.Equal(t, 1234.5, parsePrice("1,234.5"))
}

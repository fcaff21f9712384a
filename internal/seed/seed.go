// Package seed holds a reference catalogue of mandi prices used to populate
// an empty store.
package seed

import "github.com/i474232898/mandi-price-sync/internal/market"

type row struct {
	crop, state, district, market string
	price                         float64
}

var catalogue = []row{
	{"Wheat", "Punjab", "Ludhiana", "Ludhiana Mandi", 2420},
	{"Rice", "Punjab", "Amritsar", "Amritsar Mandi", 2850},
	{"Cotton", "Punjab", "Bathinda", "Bathinda Mandi", 7200},
	{"Sugarcane", "Punjab", "Jalandhar", "Jalandhar Mandi", 350},

	{"Wheat", "Haryana", "Karnal", "Karnal Mandi", 2380},
	{"Rice", "Haryana", "Karnal", "Karnal Mandi", 3200},
	{"Mustard", "Haryana", "Rohtak", "Rohtak Mandi", 5200},
	{"Bajra", "Haryana", "Hisar", "Hisar Mandi", 1950},

	{"Sugarcane", "Uttar Pradesh", "Meerut", "Meerut Mandi", 340},
	{"Wheat", "Uttar Pradesh", "Agra", "Agra Mandi", 2250},
	{"Rice", "Uttar Pradesh", "Lucknow", "Lucknow Mandi", 3100},
	{"Potato", "Uttar Pradesh", "Agra", "Agra Mandi", 1200},

	{"Wheat", "Madhya Pradesh", "Indore", "Indore Mandi", 2300},
	{"Soybean", "Madhya Pradesh", "Indore", "Indore Mandi", 4800},
	{"Maize", "Madhya Pradesh", "Indore", "Indore Mandi", 1920},
	{"Cotton", "Madhya Pradesh", "Bhopal", "Bhopal Mandi", 6800},

	{"Cotton", "Gujarat", "Rajkot", "Rajkot Mandi", 6400},
	{"Groundnut", "Gujarat", "Ahmedabad", "Ahmedabad Mandi", 5800},
	{"Wheat", "Gujarat", "Vadodara", "Vadodara Mandi", 2400},

	{"Bajra", "Rajasthan", "Jaipur", "Jaipur Mandi", 1850},
	{"Wheat", "Rajasthan", "Jodhpur", "Jodhpur Mandi", 2350},
	{"Mustard", "Rajasthan", "Kota", "Kota Mandi", 5100},

	{"Sugarcane", "Maharashtra", "Pune", "Pune Mandi", 320},
	{"Cotton", "Maharashtra", "Nagpur", "Nagpur Mandi", 6600},
	{"Soybean", "Maharashtra", "Aurangabad", "Aurangabad Mandi", 4900},
}

// Entries returns the catalogue as entries dated today (no date set).
func Entries() []market.Entry {
	out := make([]market.Entry, 0, len(catalogue))
	for _, r := range catalogue {
		out = append(out, market.Entry{
			Crop:     r.crop,
			State:    r.state,
			District: r.district,
			Market:   r.market,
			Price:    r.price,
			Unit:     market.UnitQuintal,
		})
	}
	return out
}

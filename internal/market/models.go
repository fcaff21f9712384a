package market

import (
	"time"
)

// Unit is the quantity a price is quoted per.
type Unit string

const (
	UnitQuintal Unit = "Quintal"
	UnitKg      Unit = "Kg"
	UnitTon     Unit = "Ton"
)

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	switch u {
	case UnitQuintal, UnitKg, UnitTon:
		return true
	}
	return false
}

// Source tags where a stored price came from.
type Source string

const (
	SourceManual      Source = "manual"
	SourceExternalAPI Source = "external_api"
	SourceSeed        Source = "seed"

	// SourceDatabase only tags query results; it is never stored.
	SourceDatabase Source = "database"
)

// PriceObservation is a single commodity price for one market on one day.
// Crop, State, District and Market are canonicalized before they are stored.
type PriceObservation struct {
	ID          string    `json:"id,omitempty"`
	Crop        string    `json:"crop"`
	State       string    `json:"state"`
	District    string    `json:"district"`
	Market      string    `json:"market"`
	Price       float64   `json:"price"`
	Unit        Unit      `json:"unit"`
	Date        time.Time `json:"date"`
	LastUpdated time.Time `json:"lastUpdated"`
	Source      Source    `json:"source"`
}

// Key returns the day-bucket key of the observation. Dimensions are used
// as-is, so callers canonicalize first.
func (p PriceObservation) Key(loc *time.Location) DayKey {
	return DayKey{
		Crop:     p.Crop,
		State:    p.State,
		District: p.District,
		Market:   p.Market,
		Day:      DayStart(p.Date, loc),
	}
}

// DayKey identifies the single row allowed per market, crop and calendar day.
type DayKey struct {
	Crop     string
	State    string
	District string
	Market   string
	Day      time.Time
}

// String returns a canonical string key for indexing in stores.
func (k DayKey) String() string {
	return k.Crop + "|" + k.State + "|" + k.District + "|" + k.Market + "|" + k.Day.Format("2006-01-02")
}

// DayStart truncates t to midnight in loc. A nil loc means UTC.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// RawRecord is one untyped record as returned by the external source.
type RawRecord map[string]any

// Filter narrows an outbound fetch. Empty strings mean "not filtered".
type Filter struct {
	State    string
	District string
	Crop     string
	Market   string
	Limit    int
	Offset   int
}

// QueryFilter narrows a read. Dimensions match as case-insensitive substrings.
type QueryFilter struct {
	State    string
	District string
	Crop     string
	Market   string
	Date     *time.Time
}

// StoreQuery is the resolved form of a QueryFilter handed to a Store.
type StoreQuery struct {
	State    string
	District string
	Crop     string
	Market   string
	From     time.Time // inclusive
	To       time.Time // exclusive
	Limit    int

	// ExactState matches State by equality instead of as a substring.
	ExactState bool
}

// QueryResult is what a read returns: records tagged with the tier that served them.
type QueryResult struct {
	Records []PriceObservation `json:"data"`
	Source  Source             `json:"source"`
}

// Entry is a price submitted by hand or from the seed catalogue.
type Entry struct {
	Crop     string     `json:"crop"`
	State    string     `json:"state"`
	District string     `json:"district"`
	Market   string     `json:"market"`
	Price    float64    `json:"price"`
	Unit     Unit       `json:"unit,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
}

// ItemError pairs a rejected item with the reason it failed.
type ItemError struct {
	Item  any    `json:"item"`
	Error string `json:"error"`
}

// SyncReport summarizes one synchronization or bulk write.
type SyncReport struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Total   int         `json:"total"`
	Errors  []ItemError `json:"errors"`
}

// SyncFilter narrows the fetch that feeds a sync.
type SyncFilter struct {
	State    string `json:"state"`
	District string `json:"district"`
	Crop     string `json:"crop"`
	Limit    int    `json:"limit"`
}

// Field names a dimension column for distinct lookups.
type Field string

const (
	FieldState    Field = "state"
	FieldDistrict Field = "district"
	FieldCrop     Field = "crop"
	FieldMarket   Field = "market"
)

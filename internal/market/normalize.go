package market

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/mandi-price-sync/internal/common"
)

// fieldAliases lists, per canonical field, the raw keys accepted for it in
// priority order. The first key holding a non-empty value wins.
var fieldAliases = map[string][]string{
	"crop":     {"commodity", "crop", "commodity_name", "commodity_name_hi"},
	"state":    {"state", "state_name"},
	"district": {"district", "district_name"},
	"market":   {"market", "market_name", "mandi"},
	"price":    {"modal_price", "price", "min_price", "max_price", "price_rs_quintal"},
	"unit":     {"unit", "price_unit", "unit_en"},
	"date":     {"date", "arrival_date", "price_date"},
}

// dateLayouts are tried in order when parsing a raw date.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02-01-2006",
}

// Normalize maps raw external records onto PriceObservation candidates and
// drops every candidate without a positive price or with a missing crop,
// state or district. Dimensions are trimmed but not yet canonicalized.
func Normalize(records []RawRecord, now time.Time) []PriceObservation {
	out := make([]PriceObservation, 0, len(records))
	for _, rec := range records {
		obs := normalizeRecord(rec, now)
		if !acceptable(obs) {
			continue
		}
		out = append(out, obs)
	}
	return out
}

func normalizeRecord(rec RawRecord, now time.Time) PriceObservation {
	return PriceObservation{
		Crop:        resolveString(rec, "crop"),
		State:       resolveString(rec, "state"),
		District:    resolveString(rec, "district"),
		Market:      resolveString(rec, "market"),
		Price:       parsePrice(resolve(rec, "price")),
		Unit:        ParseUnit(resolveString(rec, "unit")),
		Date:        parseDate(resolveString(rec, "date"), now),
		LastUpdated: now,
		Source:      SourceExternalAPI,
	}
}

func acceptable(p PriceObservation) bool {
	if !validPrice(p.Price) {
		return false
	}
	return !common.IsPlaceholder(p.Crop) &&
		!common.IsPlaceholder(p.State) &&
		!common.IsPlaceholder(p.District)
}

// resolve returns the first present value among the field's aliases.
func resolve(rec RawRecord, field string) any {
	for _, key := range fieldAliases[field] {
		if v, ok := rec[key]; ok && present(v) {
			return v
		}
	}
	return nil
}

func resolveString(rec RawRecord, field string) string {
	v := resolve(rec, field)
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// present mirrors a truthiness check: nil, blank strings and numeric zero
// do not count.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case bool:
		return x
	}
	return true
}

// validPrice reports whether f is a finite positive price.
func validPrice(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}

// parsePrice returns 0 for anything that is not a finite number.
func parsePrice(v any) float64 {
	f := rawPrice(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func rawPrice(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func parseDate(s string, now time.Time) time.Time {
	if s == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return now
}

// ParseUnit maps a free-text unit ("Rs./Quintal", "kg", "MT") onto Unit.
// Anything unrecognized is treated as Quintal.
func ParseUnit(s string) Unit {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return UnitQuintal
	case common.HasAny(s, "quintal", "qtl"):
		return UnitQuintal
	case common.HasAny(s, "kg", "kilo"):
		return UnitKg
	case common.HasAny(s, "tonne", "ton") || s == "mt":
		return UnitTon
	}
	return UnitQuintal
}

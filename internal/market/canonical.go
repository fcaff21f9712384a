package market

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// Canonicalize folds a free-text dimension value (state, district, crop or
// market) into one stable spelling: trimmed, each space-separated word with
// an upper-case first letter and a lower-case remainder.
//
//	Canonicalize("  PUNJAB ") == "Punjab"
//	Canonicalize("ludhiana mandi") == "Ludhiana Mandi"
func Canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + lower.String(w[size:])
}

func canonicalizeObservation(p PriceObservation) PriceObservation {
	p.Crop = Canonicalize(p.Crop)
	p.State = Canonicalize(p.State)
	p.District = Canonicalize(p.District)
	p.Market = Canonicalize(p.Market)
	return p
}

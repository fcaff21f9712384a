package common

import "strings"

// placeholders are values upstream feeds use in place of a missing name.
var placeholders = map[string]struct{}{
	"-":         {},
	"--":        {},
	"na":        {},
	"n/a":       {},
	"nil":       {},
	"null":      {},
	"none":      {},
	"undefined": {},
}

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsPlaceholder reports whether s is blank or a stand-in such as "NA" or "null".
func IsPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	_, ok := placeholders[s]
	return ok
}

package common

import "testing"

func TestIsPlaceholder(t *testing.T) {
	for _, s := range []string{"", "  ", "NA", "n/a", "Null", " - ", "undefined"} {
		if !IsPlaceholder(s) {
			t.Errorf("IsPlaceholder(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"Punjab", "Nashik", "0"} {
		if IsPlaceholder(s) {
			t.Errorf("IsPlaceholder(%q) = true, want false", s)
		}
	}
}

func TestHasAny(t *testing.T) {
	if !HasAny("rs./quintal", "kg", "quintal") {
		t.Fatal("expected a match")
	}
	if HasAny("bushel", "kg", "quintal") {
		t.Fatal("unexpected match")
	}
}

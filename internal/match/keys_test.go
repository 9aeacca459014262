package match

import (
	"reflect"
	"testing"
)

func TestAlternateKeys(t *testing.T) {
	q := &Query{Artist: "Radiohead", Album: "OK Computer", Title: "Karma Police (Live)"}

	keys := AlternateKeys(q)
	expected := []string{
		"radiohead karma police",
		"karma police",
		"radiohead ok computer karma police",
	}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("AlternateKeys = %v, expected %v", keys, expected)
	}
}

func TestAlternateKeysTitleFallsBackToTrack(t *testing.T) {
	q := &Query{Track: "Radiohead - Karma Police"}

	keys := AlternateKeys(q)
	if len(keys) == 0 {
		t.Fatal("expected keys for track-only query")
	}
	if keys[0] != "radiohead karma police" {
		t.Errorf("expected track field to drive the key, got %q", keys[0])
	}
}

func TestAlternateKeysDeduplicated(t *testing.T) {
	// Artist+title and combined search string collapse when there is no album
	q := &Query{Artist: "Radiohead", Title: "Karma Police"}

	keys := AlternateKeys(q)
	expected := []string{"radiohead karma police", "karma police"}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("AlternateKeys = %v, expected %v", keys, expected)
	}
}

func TestAlternateKeysEmpty(t *testing.T) {
	if keys := AlternateKeys(&Query{}); len(keys) != 0 {
		t.Errorf("expected no keys for empty query, got %v", keys)
	}
}

func TestSharedTokens(t *testing.T) {
	tests := []struct {
		query    string
		library  string
		expected int
	}{
		{"radiohead karma police", "02 karma police", 2},
		{"radiohead karma police", "05 let down", 0},
		{"alan west nebula", "01 nebula", 1},
		{"", "anything", 0},
	}

	for _, tt := range tests {
		result := sharedTokens(tt.query, tt.library)
		if result != tt.expected {
			t.Errorf("sharedTokens(%q, %q) = %d, expected %d", tt.query, tt.library, result, tt.expected)
		}
	}
}

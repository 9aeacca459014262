package meta

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Basic normalization
		{"Karma Police", "karma police"},
		{"KARMA POLICE", "karma police"},
		{"  Karma   Police  ", "karma police"},

		// Punctuation collapsed to single spaces
		{"Song: Title!", "song title"},
		{"Song, Title?", "song title"},
		{"Song-Title", "song title"},
		{"Song_Title", "song title"},
		{"AC/DC", "ac dc"},

		// Diacritics stripped via canonical decomposition
		{"Björk", "bjork"},
		{"Café Tacvba", "cafe tacvba"},
		{"Mötley Crüe", "motley crue"},

		// Digits kept
		{"Blink-182", "blink 182"},

		// Empty and degenerate
		{"", ""},
		{"!!!", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		result := Normalize(tt.input)
		if result != tt.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Karma Police",
		"Björk - Jóga (Live)",
		"AC/DC: Back In Black!",
		"", "   ", "Blink-182",
	}

	for _, s := range inputs {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestStripJunk(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Karma Police (Live)", "karma police"},
		{"Karma Police [2011 Remaster]", "karma police"},
		{"Karma Police (Radio Edit)", "karma police"},
		{"Karma Police (Acoustic Version)", "karma police"},
		{"Karma Police - Remastered 2009", "karma police"},
		{"Karma Police - Mono", "karma police"},
		{"Song feat. Somebody Else", "song"},
		{"Song (Deluxe Edition)", "song"},
		{"Song (feat. Guest) [Live]", "song"},

		// Clean titles pass through
		{"Karma Police", "karma police"},
		{"Live And Let Die", "live and let die"},
	}

	for _, tt := range tests {
		result := StripJunk(tt.input)
		if result != tt.expected {
			t.Errorf("StripJunk(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestStripAlbumSuffix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Shallow Grave - EP", "shallow grave"},
		{"OK Computer - Deluxe", "ok computer"},
		{"Greatest Hits - Remastered", "greatest hits"},
		{"OK Computer", "ok computer"},
	}

	for _, tt := range tests {
		result := StripAlbumSuffix(tt.input)
		if result != tt.expected {
			t.Errorf("StripAlbumSuffix(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestSignificantWords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"karma police", []string{"karma", "police"}},
		{"a of de the", []string{"the"}},
		{"ok go", nil},
		{"", nil},
	}

	for _, tt := range tests {
		result := SignificantWords(tt.input)
		if !reflect.DeepEqual(result, tt.expected) {
			t.Errorf("SignificantWords(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestWordOverlap(t *testing.T) {
	tests := []struct {
		query     string
		candidate string
		expected  float64
	}{
		{"radiohead karma police", "radiohead karma police", 1.0},
		{"radiohead karma police", "radiohead paranoid android", 1.0 / 3.0},
		{"radiohead karma police", "completely different song", 0},
		{"", "anything here", 0},
		{"ok go", "ok go", 0}, // no significant words in the query
		// Repeated query words count once
		{"hello hello hello world", "some hello thing", 0.5},
		{"badger badger mushroom", "mushroom soup", 0.5},
	}

	for _, tt := range tests {
		result := WordOverlap(tt.query, tt.candidate)
		if diff := result - tt.expected; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("WordOverlap(%q, %q) = %f, expected %f", tt.query, tt.candidate, result, tt.expected)
		}
	}
}

func TestIsGenericPath(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/lib/[unknown artist]/track.flac", true},
		{"/lib/various/track.flac", true},
		{"/lib/Various Artists/Compilation/track.flac", true},
		{"/lib/unknown artist/track.flac", true},
		{"/lib/Radiohead/OK Computer/02 Karma Police.flac", false},
	}

	for _, tt := range tests {
		result := IsGenericPath(tt.path)
		if result != tt.expected {
			t.Errorf("IsGenericPath(%q) = %v, expected %v", tt.path, result, tt.expected)
		}
	}
}

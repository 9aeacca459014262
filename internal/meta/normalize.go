package meta

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a free-text string into a lookup key: lowercase,
// accents stripped via canonical decomposition, every run of
// non-alphanumeric characters collapsed to a single space, trimmed.
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// NFD decomposition, then drop combining marks (Mn) so that
	// "Björk" and "Bjork" normalize identically
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := true
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastWasSpace = false
		} else if !lastWasSpace {
			b.WriteRune(' ')
			lastWasSpace = true
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// junkPats match noise annotations that describe a variant of a recording
// rather than the recording itself: remaster/live/edit markers, bracketed
// version notes, trailing feat. credits.
var junkPats = compileJunkPats()

// StripJunk removes junk annotations from a title-like string and then
// normalizes it. "Karma Police (Live)" and "Karma Police" produce the
// same key.
func StripJunk(s string) string {
	for _, p := range junkPats {
		s = p.ReplaceAllString(s, "")
	}
	return Normalize(s)
}

// albumSuffixPat matches release-type suffixes appended to album names
// (" - EP", " - Deluxe Edition", ...) that differ between services and
// local rips of the same album.
var albumSuffixPat = compileAlbumSuffixPat()

// StripAlbumSuffix removes a trailing release-type marker from an album
// name and normalizes the remainder.
func StripAlbumSuffix(s string) string {
	s = albumSuffixPat.ReplaceAllString(strings.TrimSpace(s), "")
	return Normalize(s)
}

// SignificantWords returns the normalized words longer than two characters.
// These drive the inverted index and the word-overlap gate; short words
// ("a", "of", "de") carry no discriminating power.
func SignificantWords(normKey string) []string {
	var words []string
	for _, w := range strings.Fields(normKey) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

// WordOverlap computes the fraction of distinct query significant words
// present in the candidate key. Returns 0 when the query has no
// significant words.
func WordOverlap(queryNorm, candidateNorm string) float64 {
	queryWords := make(map[string]bool)
	for _, w := range SignificantWords(queryNorm) {
		queryWords[w] = true
	}
	if len(queryWords) == 0 {
		return 0
	}

	candidateWords := make(map[string]bool)
	for _, w := range SignificantWords(candidateNorm) {
		candidateWords[w] = true
	}

	common := 0
	for w := range queryWords {
		if candidateWords[w] {
			common++
		}
	}

	return float64(common) / float64(len(queryWords))
}

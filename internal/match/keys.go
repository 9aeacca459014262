package match

import (
	"strings"

	"github.com/franz/playlist-resolver/internal/meta"
)

// BuildSearchString joins the non-empty query fields into one search text
func BuildSearchString(q *Query) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{q.Artist, q.Album, q.Title, q.Track} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// AlternateKeys derives the junk-stripped lookup keys for a query, most
// specific first: "artist title", bare title, then the combined search
// string as a fallback. Duplicates and empties are dropped.
func AlternateKeys(q *Query) []string {
	title := strings.TrimSpace(q.Title)
	if title == "" {
		title = strings.TrimSpace(q.Track)
	}
	artist := strings.TrimSpace(q.Artist)

	var raw []string
	if title != "" && artist != "" {
		raw = append(raw, meta.StripJunk(artist+" "+title))
	}
	if title != "" {
		raw = append(raw, meta.StripJunk(title))
	}
	raw = append(raw, meta.StripJunk(BuildSearchString(q)))

	keys := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, k := range raw {
		if k == "" || seen[k] {
			continue
		}
		keys = append(keys, k)
		seen[k] = true
	}
	return keys
}

// sharedTokens counts tokens of length >= 3 that a query key shares with
// a library key. The structural tier requires at least two.
func sharedTokens(queryKey, libraryKey string) int {
	libTokens := make(map[string]bool)
	for _, t := range strings.Fields(libraryKey) {
		if len(t) >= 3 {
			libTokens[t] = true
		}
	}

	common := 0
	for _, t := range strings.Fields(queryKey) {
		if len(t) >= 3 && libTokens[t] {
			common++
		}
	}
	return common
}

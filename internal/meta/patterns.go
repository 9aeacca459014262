package meta

import "regexp"

func compileJunkPats() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Trailing dash forms: "Title - Remastered 2011", "Title - Mono"
		regexp.MustCompile(`(?i)\s*-\s*(remaster(ed)?|mono|stereo|single\s+version|album\s+version)\b.*$`),

		// Parenthesized or bracketed annotations: (Live), [2011 Remaster],
		// (Radio Edit), (Acoustic Version), (Deluxe Edition)
		regexp.MustCompile(`(?i)\s*\([^)]*\b(bonus|deluxe|remaster(ed)?|live|edit|radio|extended|remix|mix|version|acoustic|demo|instrumental|unplugged|edition|anniversary|\d{4})\b[^)]*\)`),
		regexp.MustCompile(`(?i)\s*\[[^\]]*\b(bonus|deluxe|remaster(ed)?|live|edit|radio|extended|remix|mix|version|acoustic|demo|instrumental|unplugged|edition|anniversary|\d{4})\b[^\]]*\]`),

		// Trailing featured-artist credit: "Title feat. Someone"
		regexp.MustCompile(`(?i)\s+feat\.?\s+[^()\[\]]+$`),

		// Bare trailing markers without punctuation
		regexp.MustCompile(`(?i)\s+(remastered|live|acoustic|demo|instrumental|unplugged)$`),
	}
}

func compileAlbumSuffixPat() *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s*-\s*(ep|single|album|remaster(ed)?|deluxe|edition|reissue|expanded|bonus|mono|stereo)$`)
}

// genericPathPat flags catch-all library locations that the structural
// tier must never accept: files dumped under "Unknown Artist" or
// "Various" folders match almost any query by token overlap.
var genericPathPat = regexp.MustCompile(`(?i)\[unknown artist\]|\(xxxx\)\s*\[unknown album\]|/unknown[ /]|/unknown artist/|/various[ /]|/various artists/`)

// IsGenericPath reports whether a library path is a generic/catch-all
// location.
func IsGenericPath(p string) bool {
	return genericPathPat.MatchString(p)
}

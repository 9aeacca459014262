package match

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/franz/playlist-resolver/internal/meta"
	"github.com/franz/playlist-resolver/internal/store"
)

// fallbackLimit caps the fuzzy pre-filter seed when the inverted index
// yields nothing for a degenerate query
const fallbackLimit = 50

// Entry is one indexed catalogue track. StemNorm is the normalized
// filename stem, used by the structural tier.
type Entry struct {
	Path     string
	Norm     string
	StemNorm string
}

// Index narrows the catalogue to a small candidate set per query using an
// inverted word index. Built once per run; read-only afterwards.
type Index struct {
	entries []Entry
	byNorm  map[string][]string
	words   map[string][]int
}

// BuildIndex constructs the candidate index from catalogue lookup pairs.
// AppleDouble shadow files catalogued by an older version are dropped.
func BuildIndex(lookup []store.LookupEntry) *Index {
	ix := &Index{
		entries: make([]Entry, 0, len(lookup)),
		byNorm:  make(map[string][]string, len(lookup)),
		words:   make(map[string][]int),
	}

	for _, le := range lookup {
		base := filepath.Base(le.Path)
		if strings.HasPrefix(base, "._") {
			continue
		}
		e := Entry{
			Path:     le.Path,
			Norm:     le.Norm,
			StemNorm: meta.Normalize(strings.TrimSuffix(base, filepath.Ext(base))),
		}
		i := len(ix.entries)
		ix.entries = append(ix.entries, e)
		ix.byNorm[e.Norm] = append(ix.byNorm[e.Norm], e.Path)

		// Each significant word posts once per entry
		posted := make(map[string]bool)
		for _, w := range meta.SignificantWords(e.Norm) {
			if posted[w] {
				continue
			}
			posted[w] = true
			ix.words[w] = append(ix.words[w], i)
		}
	}

	return ix
}

// Size returns the number of indexed catalogue entries
func (ix *Index) Size() int {
	return len(ix.entries)
}

// Entries returns all indexed catalogue entries
func (ix *Index) Entries() []Entry {
	return ix.entries
}

// ExactPaths returns the catalogue paths whose normalized key equals key
func (ix *Index) ExactPaths(key string) []string {
	return ix.byNorm[key]
}

// Candidates returns the union of postings for the query's significant
// words. A query with no indexed words falls back to a fuzzy pre-filter
// over the full catalogue, capped to keep cost bounded.
func (ix *Index) Candidates(normQuery string) []Entry {
	words := meta.SignificantWords(normQuery)
	if len(words) == 0 {
		return ix.fuzzySeed(normQuery, fallbackLimit)
	}

	seen := make(map[int]bool)
	var out []Entry
	for _, w := range words {
		for _, i := range ix.words[w] {
			if seen[i] {
				continue
			}
			seen[i] = true
			out = append(out, ix.entries[i])
		}
	}

	if len(out) == 0 {
		return ix.fuzzySeed(normQuery, fallbackLimit)
	}
	return out
}

// fuzzySeed ranks the whole catalogue by cheap edit-distance ratio and
// returns the top n entries
func (ix *Index) fuzzySeed(normQuery string, n int) []Entry {
	if normQuery == "" || len(ix.entries) == 0 {
		return nil
	}

	type seeded struct {
		entry Entry
		ratio float64
	}
	scored := make([]seeded, 0, len(ix.entries))
	for _, e := range ix.entries {
		scored = append(scored, seeded{entry: e, ratio: editRatio(normQuery, e.Norm)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ratio > scored[j].ratio
	})

	if n > len(scored) {
		n = len(scored)
	}
	out := make([]Entry, 0, n)
	for _, s := range scored[:n] {
		out = append(out, s.entry)
	}
	return out
}

// editRatio converts Levenshtein distance into a 0..1 similarity
func editRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	max := len([]rune(a))
	if lb := len([]rune(b)); lb > max {
		max = lb
	}
	if max == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(max)
}

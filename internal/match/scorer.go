package match

import (
	"math"
	"strings"

	"github.com/franz/playlist-resolver/internal/meta"
)

// junkTokens are filler words that should not drive a match on their own.
// They still contribute a small bonus when both sides agree on them.
var junkTokens = map[string]bool{
	"ep": true, "remix": true, "mix": true, "version": true, "edit": true,
	"original": true, "single": true, "album": true, "live": true,
	"feat": true, "featuring": true, "vs": true, "vol": true,
	"pt": true, "part": true, "deluxe": true, "remastered": true,
	"remaster": true, "bonus": true, "instrumental": true,
	"mono": true, "stereo": true,
}

// Scorer computes a 0..100 composite score between the parsed metadata of
// a query and a candidate. Heuristic, not a metric: ties break in favor of
// the first-seen candidate.
type Scorer struct {
	w Weights
}

// NewScorer creates a scorer with the given weights
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score combines title/artist/album similarity with year and duration
// proximity into one rounded, clamped score.
func (s *Scorer) Score(source, candidate meta.ParsedMeta) int {
	titleDir := orderedPhraseScore(source.Title, candidate.Title)
	titleTok := tokenOverlapScore(source.Title, candidate.Title)

	artistDir := orderedPhraseScore(source.Artist, candidate.Artist)
	artistTok := tokenOverlapScore(source.Artist, candidate.Artist)

	// A query artist contained verbatim in the candidate artist is a
	// strong signal regardless of extra credits around it
	srcArtist := meta.Normalize(source.Artist)
	candArtist := meta.Normalize(candidate.Artist)
	if srcArtist != "" {
		if strings.Contains(candArtist, srcArtist) {
			artistDir, artistTok = 1.0, 1.0
		} else {
			for _, tok := range strings.Fields(candArtist) {
				if tok == srcArtist {
					artistDir, artistTok = 1.0, 1.0
					break
				}
			}
		}
	}

	artistBias := 0.0
	if artistDir >= 0.9 || artistTok >= 0.9 {
		artistBias = s.w.ArtistStrongBias
	} else if artistDir < 0.3 && artistTok < 0.3 {
		artistBias = s.w.ArtistWeakBias
	}

	albumTok := tokenOverlapScore(
		meta.StripAlbumSuffix(source.Album),
		meta.StripAlbumSuffix(candidate.Album),
	)

	yearBonus := 0.0
	if source.Year > 0 && candidate.Year > 0 {
		dy := source.Year - candidate.Year
		if dy < 0 {
			dy = -dy
		}
		if dy <= 2 {
			yearBonus = s.w.YearBonus
		} else if dy > 5 {
			yearBonus = -s.w.YearBonus
		}
	}

	durBonus := 0.0
	if source.Duration > 0 && candidate.Duration > 0 {
		longer := math.Max(source.Duration, candidate.Duration)
		diff := math.Abs(source.Duration-candidate.Duration) / longer
		switch {
		case diff <= 0.05:
			durBonus = s.w.DurationNear
		case diff <= 0.10:
			durBonus = s.w.DurationClose
		case diff >= 0.25:
			durBonus = s.w.DurationFar
		}
	}

	base := s.w.TitlePhrase*titleDir +
		s.w.TitleTokens*titleTok +
		s.w.Artist*math.Max(artistDir, artistTok) +
		s.w.Album*albumTok

	score := int(math.Round(100 * (base + artistBias + yearBonus + durBonus)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// orderedPhraseScore compares two strings as phrases: exact beats
// substring beats single-token containment beats a partial in-order token
// match.
func orderedPhraseScore(a, b string) float64 {
	na, nb := meta.Normalize(a), meta.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(nb, na) {
		return 0.9
	}

	at := strings.Fields(na)
	bt := strings.Fields(nb)
	if len(at) == 1 {
		for _, t := range bt {
			if t == at[0] {
				return 0.7
			}
		}
	}

	// Longest in-order token agreement, scaled down so a scattered
	// partial match never outranks containment
	i, j, m := 0, 0, 0
	for i < len(at) && j < len(bt) {
		if at[i] == bt[j] {
			m++
			i++
		}
		j++
	}
	return float64(m) / float64(len(at)) * 0.8
}

// tokenOverlapScore is the Jaccard overlap of meaningful tokens, with a
// small bonus when both sides agree on filler tokens too
func tokenOverlapScore(a, b string) float64 {
	aCore, aJunk := splitTokens(a)
	bCore, bJunk := splitTokens(b)
	if len(aCore) == 0 || len(bCore) == 0 {
		return 0
	}

	score := jaccard(aCore, bCore) + 0.2*jaccard(aJunk, bJunk)
	return math.Min(1.0, score)
}

func splitTokens(s string) (core, junk map[string]bool) {
	core = make(map[string]bool)
	junk = make(map[string]bool)
	for _, t := range strings.Fields(meta.Normalize(s)) {
		if junkTokens[t] {
			junk[t] = true
		} else {
			core[t] = true
		}
	}
	return core, junk
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/franz/playlist-resolver/internal/meta"
	"github.com/franz/playlist-resolver/internal/report"
	"github.com/franz/playlist-resolver/internal/store"
	"github.com/franz/playlist-resolver/internal/util"
)

// Matcher resolves playlist queries against the catalogue through a
// tiered pipeline: exact key, guarded structural, scored fuzzy, and a
// suspicious-pattern re-check over the whole run.
type Matcher struct {
	store  *store.Store
	index  *Index
	scorer *Scorer
	cfg    *Config
	logger *report.EventLogger

	// consumed enforces the one-file-per-query invariant within a run
	consumed  map[string]bool
	metaCache map[string]meta.ParsedMeta
}

// New creates a Matcher over the current catalogue state. The candidate
// index is built once here; matching never mutates the store.
func New(st *store.Store, cfg *Config, logger *report.EventLogger) (*Matcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	lookup, err := st.Lookup()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogue lookup: %w", err)
	}
	if len(lookup) == 0 {
		return nil, fmt.Errorf("catalogue is empty, run a refresh first")
	}

	util.InfoLog("Building candidate index over %d tracks", len(lookup))
	index := BuildIndex(lookup)

	return &Matcher{
		store:     st,
		index:     index,
		scorer:    NewScorer(cfg.Weights),
		cfg:       cfg,
		logger:    logger,
		consumed:  make(map[string]bool),
		metaCache: make(map[string]meta.ParsedMeta),
	}, nil
}

// IndexSize returns the number of catalogue entries available for matching
func (m *Matcher) IndexSize() int {
	return m.index.Size()
}

// MatchAll resolves all queries in order. Bookkeeping of consumed paths
// is serialized by processing queries sequentially; results with status
// needs-review still require a Resolve pass to become final.
func (m *Matcher) MatchAll(ctx context.Context, queries []Query) ([]MatchResult, error) {
	results := make([]MatchResult, 0, len(queries))

	for i := range queries {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		res := m.matchOne(&queries[i])
		results = append(results, res)

		if m.logger != nil {
			m.logger.LogMatch(res.Query.Display(), res.Path, res.Score, string(res.Method), string(res.Status))
		}
		switch res.Status {
		case StatusMatched:
			util.InfoLog("[%s %d] %s -> %s", res.Method, res.Score, res.Query.Display(), res.Path)
		case StatusNeedsReview:
			util.DebugLog("[review %d] %s", res.Score, res.Query.Display())
		default:
			util.DebugLog("[unmatched] %s", res.Query.Display())
		}
	}

	m.recheckSuspicious(results)

	return results, nil
}

func (m *Matcher) matchOne(q *Query) MatchResult {
	res := MatchResult{Query: *q, Method: MethodNone, Status: StatusUnmatched}

	// A query with no usable text never reaches retrieval or scoring
	if q.IsEmpty() {
		return res
	}

	keys := AlternateKeys(q)
	if len(keys) == 0 {
		return res
	}

	// Tier 1: exact normalized-key hit
	for _, k := range keys {
		for _, path := range m.index.ExactPaths(k) {
			if m.consumed[path] {
				continue
			}
			m.consumed[path] = true
			res.Path = path
			res.Score = 100
			res.Method = MethodExact
			res.Status = StatusMatched
			return res
		}
	}

	// Tier 2: guarded structural check. Only keys long enough to be
	// discriminating, only non-generic library locations.
	for _, k := range keys {
		if len(k) < 8 {
			continue
		}
		for _, e := range m.index.Entries() {
			if m.consumed[e.Path] || meta.IsGenericPath(e.Path) {
				continue
			}
			if sharedTokens(k, e.StemNorm) >= 2 {
				m.consumed[e.Path] = true
				res.Path = e.Path
				res.Score = 100
				res.Method = MethodStructural
				res.Status = StatusMatched
				return res
			}
		}
	}

	// Tier 3: scored fuzzy over retrieved candidates
	normKey := keys[len(keys)-1] // combined search string, widest net
	queryMeta := m.queryMeta(q)

	type scored struct {
		path    string
		score   int
		overlap float64
	}
	var all []scored

	for _, e := range m.index.Candidates(normKey) {
		if m.consumed[e.Path] {
			continue
		}
		all = append(all, scored{
			path:    e.Path,
			score:   m.scorer.Score(queryMeta, m.candidateMeta(e.Path)),
			overlap: meta.WordOverlap(normKey, e.Norm),
		})
	}

	// Best eligible candidate: first-seen wins ties, the overlap gate
	// disqualifies regardless of score
	best := scored{score: -1}
	for _, c := range all {
		if c.overlap < m.cfg.OverlapReject {
			continue
		}
		if c.score > best.score {
			best = c
		}
	}

	if best.score >= m.cfg.Threshold {
		m.consumed[best.path] = true
		res.Path = best.path
		res.Score = best.score
		res.Method = MethodScored
		res.Status = StatusMatched
		return res
	}

	if best.score >= m.cfg.ReviewMin && best.overlap >= m.cfg.OverlapReview {
		res.Path = best.path
		res.Score = best.score
		res.Method = MethodScored
		res.Status = StatusNeedsReview
		sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
		for _, c := range all {
			if len(res.Alternatives) >= m.cfg.MaxAlternatives {
				break
			}
			res.Alternatives = append(res.Alternatives, Candidate{Path: c.path, Score: c.score})
		}
		return res
	}

	if best.score >= 0 {
		util.DebugLog("Rejected: score %d overlap %.2f for %s", best.score, best.overlap, q.Display())
	}
	return res
}

// recheckSuspicious demotes auto-matches when too many of them landed on
// the exact same score, which signals a degenerate matcher state such as
// every query hitting one generic file.
func (m *Matcher) recheckSuspicious(results []MatchResult) {
	var autoScores []int
	for i := range results {
		if results[i].Status == StatusMatched {
			autoScores = append(autoScores, results[i].Score)
		}
	}
	if len(autoScores) < 5 {
		return
	}

	counts := make(map[int]int)
	mode, modeCount := 0, 0
	for _, s := range autoScores {
		counts[s]++
		if counts[s] > modeCount {
			mode, modeCount = s, counts[s]
		}
	}

	if float64(modeCount)/float64(len(autoScores)) <= 0.7 {
		return
	}

	util.WarnLog("Suspicious matching: %d/%d auto-matches share score %d, demoting low-confidence results to review",
		modeCount, len(autoScores), mode)

	for i := range results {
		r := &results[i]
		if r.Status != StatusMatched {
			continue
		}

		// Re-score on metadata. Exact and structural hits carry a flat
		// 100, which says nothing about how good the match really is.
		rescored := m.scorer.Score(m.queryMeta(&r.Query), m.candidateMeta(r.Path))
		if rescored >= m.cfg.HighConfidence {
			continue
		}

		delete(m.consumed, r.Path)
		if m.logger != nil {
			m.logger.LogDemote(r.Query.Display(), r.Path, r.Score, "uniform-score pattern")
		}

		r.Alternatives = m.rankAlternatives(&r.Query)
		r.Path = ""
		r.Status = StatusNeedsReview
	}
}

// rankAlternatives builds the capped, deduplicated, score-ranked candidate
// list offered in review. Falls back to a fuzzy seed over the whole
// catalogue when the index retrieves nothing.
func (m *Matcher) rankAlternatives(q *Query) []Candidate {
	keys := AlternateKeys(q)
	if len(keys) == 0 {
		return nil
	}
	normKey := keys[len(keys)-1]
	queryMeta := m.queryMeta(q)

	entries := m.index.Candidates(normKey)
	if len(entries) == 0 {
		entries = m.index.fuzzySeed(normKey, fallbackLimit)
	}

	seen := make(map[string]bool)
	var out []Candidate
	for _, e := range entries {
		if seen[e.Path] || m.consumed[e.Path] {
			continue
		}
		seen[e.Path] = true
		out = append(out, Candidate{
			Path:  e.Path,
			Score: m.scorer.Score(queryMeta, m.candidateMeta(e.Path)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > m.cfg.MaxAlternatives {
		out = out[:m.cfg.MaxAlternatives]
	}
	return out
}

// queryMeta converts a query into scorer input
func (m *Matcher) queryMeta(q *Query) meta.ParsedMeta {
	title := q.Title
	if title == "" {
		title = q.Track
	}
	return meta.ParsedMeta{
		Artist: q.Artist,
		Album:  q.Album,
		Title:  title,
	}
}

// candidateMeta returns cached parsed metadata for a catalogue path
func (m *Matcher) candidateMeta(path string) meta.ParsedMeta {
	if cached, ok := m.metaCache[path]; ok {
		return cached
	}

	var parsed meta.ParsedMeta
	if t, err := m.store.GetTrack(path); err == nil && t != nil {
		parsed = meta.ParseTrackMeta(t)
	} else {
		parsed = meta.ParsePath(path)
	}

	m.metaCache[path] = parsed
	return parsed
}

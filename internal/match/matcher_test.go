package match

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/playlist-resolver/internal/store"
)

func newTestMatcher(t *testing.T, tracks []*store.Track, cfg *Config) *Matcher {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "match.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.UpsertTrackBatch(tracks); err != nil {
		t.Fatalf("failed to seed catalogue: %v", err)
	}

	m, err := New(st, cfg, nil)
	if err != nil {
		t.Fatalf("failed to create matcher: %v", err)
	}
	return m
}

func libraryTracks() []*store.Track {
	return []*store.Track{
		{
			Path: "/lib/Radiohead/OK Computer/02 Karma Police.flac", MtimeUnix: 100,
			Norm: "radiohead karma police", Artist: "Radiohead", Album: "OK Computer",
			Title: "Karma Police", Year: "1997",
		},
		{
			Path: "/lib/Radiohead/OK Computer/05 Let Down.flac", MtimeUnix: 100,
			Norm: "radiohead let down", Artist: "Radiohead", Album: "OK Computer",
			Title: "Let Down", Year: "1997",
		},
		{
			Path: "/lib/Portishead/Dummy/01 Mysterons.flac", MtimeUnix: 100,
			Norm: "portishead mysterons", Artist: "Portishead", Album: "Dummy",
			Title: "Mysterons", Year: "1994",
		},
	}
}

func TestMatchExactPriority(t *testing.T) {
	m := newTestMatcher(t, libraryTracks(), nil)

	results, err := m.MatchAll(context.Background(), []Query{
		{Artist: "Radiohead", Title: "Karma Police"},
	})
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	r := results[0]
	if r.Status != StatusMatched {
		t.Fatalf("expected matched, got %s", r.Status)
	}
	if r.Score != 100 {
		t.Errorf("expected score 100, got %d", r.Score)
	}
	if r.Method != MethodExact && r.Method != MethodStructural {
		t.Errorf("expected exact or structural method, got %s", r.Method)
	}
	if r.Path != "/lib/Radiohead/OK Computer/02 Karma Police.flac" {
		t.Errorf("unexpected path: %s", r.Path)
	}
}

func TestMatchJunkStrippedVariant(t *testing.T) {
	m := newTestMatcher(t, libraryTracks(), nil)

	results, err := m.MatchAll(context.Background(), []Query{
		{Artist: "Radiohead", Title: "Karma Police (Live)"},
	})
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	r := results[0]
	if r.Status != StatusMatched {
		t.Fatalf("expected matched after junk stripping, got %s", r.Status)
	}
	if r.Score < DefaultConfig().Threshold {
		t.Errorf("expected score at or above threshold, got %d", r.Score)
	}
	if r.Path != "/lib/Radiohead/OK Computer/02 Karma Police.flac" {
		t.Errorf("unexpected path: %s", r.Path)
	}
}

func TestMatchNoReuse(t *testing.T) {
	m := newTestMatcher(t, libraryTracks(), nil)

	results, err := m.MatchAll(context.Background(), []Query{
		{Artist: "Radiohead", Title: "Karma Police"},
		{Artist: "Radiohead", Title: "Karma Police"},
	})
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	if results[0].Status != StatusMatched {
		t.Fatalf("expected first query matched, got %s", results[0].Status)
	}
	if results[1].Status == StatusMatched && results[1].Path == results[0].Path {
		t.Error("two queries must never resolve to the same library path")
	}
}

func TestMatchUnmatched(t *testing.T) {
	m := newTestMatcher(t, libraryTracks(), nil)

	results, err := m.MatchAll(context.Background(), []Query{
		{Artist: "XYZ Unknown Band", Title: "Completely Different Song"},
	})
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	if results[0].Status != StatusUnmatched {
		t.Errorf("expected unmatched, got %s (path %s)", results[0].Status, results[0].Path)
	}
}

func TestMatchEmptyQuery(t *testing.T) {
	m := newTestMatcher(t, libraryTracks(), nil)

	results, err := m.MatchAll(context.Background(), []Query{{}})
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	r := results[0]
	if r.Status != StatusUnmatched || r.Method != MethodNone {
		t.Errorf("empty query must be unmatched with no method, got %s/%s", r.Status, r.Method)
	}
}

func TestMatchOverlapGate(t *testing.T) {
	// The candidate agrees perfectly on title and artist, so the
	// composite score clears the threshold, but the query's many extra
	// words push the word overlap below the reject floor.
	tracks := []*store.Track{
		{
			Path: "/lib/Alan East Band/Drift/01 Nebula.flac", MtimeUnix: 100,
			Norm: "alan east band nebula", Artist: "Alan East Band", Title: "Nebula",
		},
	}
	m := newTestMatcher(t, tracks, nil)

	results, err := m.MatchAll(context.Background(), []Query{{
		Artist: "Alan East",
		Title:  "Nebula",
		Album:  "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike november oscar papa quebec romeo sierra tango",
	}})
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	if results[0].Status == StatusMatched {
		t.Errorf("candidate below the overlap reject floor must never match, got score %d via %s",
			results[0].Score, results[0].Method)
	}
}

func TestSuspiciousPatternDemotion(t *testing.T) {
	// Five queries that all land on the same sub-high-confidence score:
	// exact title and album, partially agreeing artist.
	var tracks []*store.Track
	var queries []Query
	words := []string{"nebula", "quasar", "pulsar", "comet", "meteor"}
	for i, w := range words {
		tracks = append(tracks, &store.Track{
			Path:      fmt.Sprintf("/lib/Alan East%d/Star Charts/01 %s.flac", i, w),
			MtimeUnix: 100,
			Norm:      fmt.Sprintf("alan east%d %s", i, w),
			Artist:    fmt.Sprintf("Alan East%d", i),
			Album:     "Star Charts",
			Title:     w,
		})
		queries = append(queries, Query{
			Artist: fmt.Sprintf("Alan West%d", i),
			Album:  "Star Charts",
			Title:  w,
		})
	}

	m := newTestMatcher(t, tracks, nil)

	results, err := m.MatchAll(context.Background(), queries)
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	for i, r := range results {
		if r.Status != StatusNeedsReview {
			t.Errorf("query %d: expected demotion to review, got %s (score %d)", i, r.Status, r.Score)
		}
		if r.Path != "" {
			t.Errorf("query %d: demoted result must release its path, got %s", i, r.Path)
		}
		if len(r.Alternatives) == 0 {
			t.Errorf("query %d: demoted result should carry ranked alternatives", i)
		}
	}
}

func TestResolveReviewsAutoResolver(t *testing.T) {
	tracks := libraryTracks()
	m := newTestMatcher(t, tracks, nil)

	results := []MatchResult{
		{
			Query:  Query{Artist: "Radiohead", Title: "Karma Police"},
			Status: StatusNeedsReview,
			Alternatives: []Candidate{
				{Path: "/lib/Radiohead/OK Computer/02 Karma Police.flac", Score: 90},
			},
		},
		{
			Query:  Query{Artist: "Someone", Title: "Something"},
			Status: StatusNeedsReview,
			Alternatives: []Candidate{
				{Path: "/lib/Portishead/Dummy/01 Mysterons.flac", Score: 40},
			},
		},
	}

	if err := m.ResolveReviews(results, &AutoResolver{MinScore: 88}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if results[0].Status != StatusMatched || results[0].Method != MethodManual {
		t.Errorf("high-confidence candidate should be accepted, got %s/%s",
			results[0].Status, results[0].Method)
	}
	if results[1].Status != StatusUnmatched {
		t.Errorf("low-confidence candidate should be skipped, got %s", results[1].Status)
	}
}

func TestSuspiciousDemotionRescoresExactMatches(t *testing.T) {
	// Bare one-word titles hit the exact tier and record a flat 100,
	// but on metadata they agree with nothing beyond the title. The
	// uniform-score re-check must catch these too.
	var tracks []*store.Track
	var queries []Query
	words := []string{"nebula", "quasar", "pulsar", "comet", "meteor"}
	for i, w := range words {
		tracks = append(tracks, &store.Track{
			Path:      fmt.Sprintf("/lib/Alan East/Star Charts/%02d %s.flac", i+1, w),
			MtimeUnix: 100,
			Norm:      w,
			Artist:    "Alan East",
			Album:     "Star Charts",
			Title:     w,
		})
		queries = append(queries, Query{Title: w})
	}

	m := newTestMatcher(t, tracks, nil)

	results, err := m.MatchAll(context.Background(), queries)
	if err != nil {
		t.Fatalf("matching failed: %v", err)
	}

	for i, r := range results {
		if r.Status != StatusNeedsReview {
			t.Errorf("query %d: expected needs-review after demotion, got %s", i, r.Status)
		}
		if r.Path != "" {
			t.Errorf("query %d: demoted result should release its path, got %s", i, r.Path)
		}
		if len(r.Alternatives) == 0 {
			t.Errorf("query %d: demoted result should offer alternatives", i)
		}
	}
}

func TestResolveReviewsConfirmKeepsScoredMethod(t *testing.T) {
	tracks := libraryTracks()
	m := newTestMatcher(t, tracks, nil)

	// The scored tier's own proposal, queued for review
	results := []MatchResult{{
		Query:  Query{Artist: "Radiohead", Title: "Karma Police"},
		Path:   "/lib/Radiohead/OK Computer/02 Karma Police.flac",
		Score:  72,
		Method: MethodScored,
		Status: StatusNeedsReview,
		Alternatives: []Candidate{
			{Path: "/lib/Radiohead/OK Computer/02 Karma Police.flac", Score: 72},
			{Path: "/lib/Radiohead/OK Computer/05 Let Down.flac", Score: 40},
		},
	}}

	if err := m.ResolveReviews(results, pickFirstResolver{}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	r := results[0]
	if r.Status != StatusMatched {
		t.Fatalf("confirmed candidate should be matched, got %s", r.Status)
	}
	if r.Method != MethodScored {
		t.Errorf("confirming the pipeline's candidate should keep method %q, got %q",
			MethodScored, r.Method)
	}
	if r.Path != "/lib/Radiohead/OK Computer/02 Karma Police.flac" {
		t.Errorf("unexpected path: %s", r.Path)
	}
}

func TestResolveReviewsOtherCandidateIsManual(t *testing.T) {
	tracks := libraryTracks()
	m := newTestMatcher(t, tracks, nil)

	results := []MatchResult{{
		Query:  Query{Artist: "Radiohead", Title: "Let Down"},
		Path:   "/lib/Radiohead/OK Computer/02 Karma Police.flac",
		Score:  70,
		Method: MethodScored,
		Status: StatusNeedsReview,
		Alternatives: []Candidate{
			{Path: "/lib/Radiohead/OK Computer/05 Let Down.flac", Score: 68},
			{Path: "/lib/Radiohead/OK Computer/02 Karma Police.flac", Score: 70},
		},
	}}

	if err := m.ResolveReviews(results, pickFirstResolver{}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	r := results[0]
	if r.Status != StatusMatched || r.Method != MethodManual {
		t.Errorf("picking a different candidate is a human call, got %s/%s",
			r.Status, r.Method)
	}
	if r.Path != "/lib/Radiohead/OK Computer/05 Let Down.flac" {
		t.Errorf("unexpected path: %s", r.Path)
	}
}

type pickFirstResolver struct{}

func (pickFirstResolver) Resolve(q *Query, candidates []Candidate) (Decision, error) {
	if len(candidates) == 0 {
		return Decision{Kind: DecisionSkip}, nil
	}
	return Decision{Kind: DecisionAccept, Index: 0}, nil
}

func TestResolveReviewsNoReuse(t *testing.T) {
	m := newTestMatcher(t, libraryTracks(), nil)

	shared := []Candidate{{Path: "/lib/Portishead/Dummy/01 Mysterons.flac", Score: 80}}
	results := []MatchResult{
		{Query: Query{Title: "First"}, Status: StatusNeedsReview, Alternatives: shared},
		{Query: Query{Title: "Second"}, Status: StatusNeedsReview, Alternatives: shared},
	}

	if err := m.ResolveReviews(results, pickFirstResolver{}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if results[0].Status != StatusMatched {
		t.Fatalf("expected first review to be accepted, got %s", results[0].Status)
	}
	if results[1].Status == StatusMatched && results[1].Path == results[0].Path {
		t.Error("review resolution must not hand the same path to two queries")
	}
}

func TestResolveReviewsManualPath(t *testing.T) {
	m := newTestMatcher(t, libraryTracks(), nil)

	manual := filepath.Join(t.TempDir(), "override.flac")
	if err := os.WriteFile(manual, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create override file: %v", err)
	}

	results := []MatchResult{
		{Query: Query{Title: "Anything"}, Status: StatusNeedsReview},
	}

	resolver := manualResolver{path: manual}
	if err := m.ResolveReviews(results, resolver); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if results[0].Status != StatusMatched || results[0].Path != manual {
		t.Errorf("expected manual override accepted, got %s (%s)", results[0].Status, results[0].Path)
	}
	if results[0].Method != MethodManual {
		t.Errorf("expected manual method, got %s", results[0].Method)
	}
}

type manualResolver struct{ path string }

func (r manualResolver) Resolve(q *Query, candidates []Candidate) (Decision, error) {
	return Decision{Kind: DecisionManual, Path: r.path}, nil
}

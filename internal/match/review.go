package match

import (
	"fmt"
	"os"

	"github.com/franz/playlist-resolver/internal/util"
)

// DecisionKind is what a resolver chose to do with an uncertain query
type DecisionKind int

const (
	// DecisionSkip leaves the query unmatched
	DecisionSkip DecisionKind = iota
	// DecisionAccept picks one of the offered candidates by index
	DecisionAccept
	// DecisionManual supplies a library path directly
	DecisionManual
)

// Decision is a resolver's verdict for one query
type Decision struct {
	Kind  DecisionKind
	Index int    // candidate index for DecisionAccept
	Path  string // override path for DecisionManual
}

// Resolver decides the fate of queries the pipeline could not settle.
// Candidates arrive pre-ranked by score, deduplicated and capped;
// implementations range from interactive prompts to headless policies.
type Resolver interface {
	Resolve(q *Query, candidates []Candidate) (Decision, error)
}

// AutoResolver is a headless policy: accept the top candidate when it
// clears MinScore, skip everything else.
type AutoResolver struct {
	MinScore int
}

// Resolve implements Resolver
func (r *AutoResolver) Resolve(q *Query, candidates []Candidate) (Decision, error) {
	if len(candidates) > 0 && candidates[0].Score >= r.MinScore {
		return Decision{Kind: DecisionAccept, Index: 0}, nil
	}
	return Decision{Kind: DecisionSkip}, nil
}

// ResolveReviews finalizes needs-review and unmatched results through the
// resolver. Results are mutated in place; after this pass every result is
// either matched or unmatched.
func (m *Matcher) ResolveReviews(results []MatchResult, resolver Resolver) error {
	if resolver == nil {
		resolver = &AutoResolver{MinScore: m.cfg.HighConfidence}
	}

	for i := range results {
		r := &results[i]
		if r.Status == StatusMatched {
			continue
		}

		candidates := r.Alternatives
		if len(candidates) == 0 {
			candidates = m.rankAlternatives(&r.Query)
			r.Alternatives = candidates
		}

		decision, err := resolver.Resolve(&r.Query, candidates)
		if err != nil {
			return fmt.Errorf("resolver failed for %q: %w", r.Query.Display(), err)
		}

		switch decision.Kind {
		case DecisionAccept:
			if decision.Index < 0 || decision.Index >= len(candidates) {
				return fmt.Errorf("resolver picked candidate %d of %d for %q",
					decision.Index, len(candidates), r.Query.Display())
			}
			pick := candidates[decision.Index]
			if m.consumed[pick.Path] {
				util.WarnLog("Candidate already taken by another query: %s", pick.Path)
				m.finalizeUnmatched(r)
				continue
			}
			m.consumed[pick.Path] = true
			// Confirming the pipeline's own proposal keeps its method;
			// picking a different candidate is a human call
			if pick.Path == r.Path && r.Method != MethodNone {
				r.Status = StatusMatched
				r.Score = pick.Score
				break
			}
			r.Path = pick.Path
			r.Score = pick.Score
			r.Method = MethodManual
			r.Status = StatusMatched

		case DecisionManual:
			// Manual overrides are trusted beyond an existence check
			if _, err := os.Stat(decision.Path); err != nil {
				util.WarnLog("Manual path not accessible, leaving unmatched: %s", decision.Path)
				m.finalizeUnmatched(r)
				continue
			}
			m.consumed[decision.Path] = true
			r.Path = decision.Path
			r.Score = 100
			r.Method = MethodManual
			r.Status = StatusMatched

		default:
			m.finalizeUnmatched(r)
		}

		if m.logger != nil {
			m.logger.LogReview(r.Query.Display(), r.Path, string(r.Status))
		}
	}

	return nil
}

func (m *Matcher) finalizeUnmatched(r *MatchResult) {
	r.Path = ""
	r.Score = 0
	r.Method = MethodNone
	r.Status = StatusUnmatched
}

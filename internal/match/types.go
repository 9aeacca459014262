package match

// Method identifies which tier of the pipeline produced a result
type Method string

const (
	MethodExact      Method = "exact"
	MethodStructural Method = "structural"
	MethodScored     Method = "scored"
	MethodManual     Method = "manual"
	MethodNone       Method = "none"
)

// Status is the disposition of one query after matching
type Status string

const (
	StatusMatched     Status = "matched"
	StatusNeedsReview Status = "needs-review"
	StatusUnmatched   Status = "unmatched"
)

// Query is one playlist entry to resolve against the catalogue.
// All fields are free text straight from the playlist parser; Raw keeps
// the original line for display and reports.
type Query struct {
	Artist string
	Album  string
	Title  string
	Track  string
	ISRC   string
	Raw    string
}

// IsEmpty reports whether the query carries no usable text at all
func (q *Query) IsEmpty() bool {
	return q.Artist == "" && q.Album == "" && q.Title == "" && q.Track == ""
}

// Display returns the best human-readable form of the query
func (q *Query) Display() string {
	if q.Raw != "" {
		return q.Raw
	}
	return BuildSearchString(q)
}

// Candidate is one ranked library alternative offered for review
type Candidate struct {
	Path  string
	Score int
}

// MatchResult is the final outcome for one query
type MatchResult struct {
	Query        Query
	Path         string
	Score        int
	Method       Method
	Status       Status
	Alternatives []Candidate
}

// Weights are the composite scorer coefficients. The shape is load-bearing
// (title-dominant, artist-biased, year/duration as tie-breakers); the
// literal values are tuned defaults, not contracts.
type Weights struct {
	TitlePhrase float64
	TitleTokens float64
	Artist      float64
	Album       float64

	ArtistStrongBias float64
	ArtistWeakBias   float64

	YearBonus     float64
	DurationNear  float64
	DurationClose float64
	DurationFar   float64
}

// DefaultWeights returns the tuned scorer coefficients
func DefaultWeights() Weights {
	return Weights{
		TitlePhrase:      0.55,
		TitleTokens:      0.20,
		Artist:           0.15,
		Album:            0.05,
		ArtistStrongBias: 0.20,
		ArtistWeakBias:   -0.15,
		YearBonus:        0.06,
		DurationNear:     0.10,
		DurationClose:    0.05,
		DurationFar:      -0.08,
	}
}

// Config holds the matching thresholds and scorer weights
type Config struct {
	// Threshold is the score at or above which a match is accepted
	// without review
	Threshold int

	// ReviewMin is the score below which a candidate is discarded
	// rather than queued for review
	ReviewMin int

	// HighConfidence is the score at or above which a match survives
	// the suspicious-pattern re-check
	HighConfidence int

	// OverlapReject is the minimum fraction of query words that must
	// appear in a candidate key before it can be accepted at all
	OverlapReject float64

	// OverlapReview is the stricter floor required to queue a
	// sub-threshold candidate for review instead of dropping it
	OverlapReview float64

	// MaxAlternatives caps the ranked candidate list shown in review
	MaxAlternatives int

	Weights Weights
}

// DefaultConfig returns the default matching configuration
func DefaultConfig() *Config {
	return &Config{
		Threshold:       85,
		ReviewMin:       65,
		HighConfidence:  88,
		OverlapReject:   0.15,
		OverlapReview:   0.40,
		MaxAlternatives: 5,
		Weights:         DefaultWeights(),
	}
}

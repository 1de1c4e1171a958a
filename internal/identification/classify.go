package identification

import (
	"fmt"
	"sort"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// Kind is the three-way classification of one audiobook.
type Kind int

const (
	Unmatched Kind = iota
	Ambiguous
	Confident
)

func (k Kind) String() string {
	switch k {
	case Confident:
		return "confident"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unmatched"
	}
}

// Methods recorded for confident outcomes.
const (
	MethodASINLink = "asin_link"
	MethodScored   = "scored"
	MethodManual   = "manual"
)

// Default thresholds.
const (
	DefaultMatchThreshold  = 90
	DefaultReviewThreshold = 75
)

// Candidate is one scored library record for an audiobook.
type Candidate struct {
	LibraryID int
	Title     string
	Score     int
	Rank      int
}

// Outcome is the classification of one audiobook. LibraryID, Score and Method
// are set for Confident; Candidates for Ambiguous. TopScore is the best score
// seen and is informational for Unmatched.
type Outcome struct {
	ASIN       string
	Kind       Kind
	LibraryID  int
	Score      int
	Method     string
	Candidates []Candidate
	TopScore   int
}

// Thresholds is the classification policy. Match must not be below Review.
type Thresholds struct {
	Match  int
	Review int
}

// DefaultThresholds returns the stock 90/75 policy.
func DefaultThresholds() Thresholds {
	return Thresholds{Match: DefaultMatchThreshold, Review: DefaultReviewThreshold}
}

// Validate checks 0 <= review <= match <= 100.
func (t Thresholds) Validate() error {
	if t.Review < 0 || t.Match > 100 || t.Review > t.Match {
		return services.Wrap(services.ErrValidation, "matching", "thresholds",
			fmt.Sprintf("need 0 <= review (%d) <= match (%d) <= 100", t.Review, t.Match), nil)
	}
	return nil
}

// Rank sorts candidates by score descending, then library id ascending, and
// assigns 1-based ranks. The input slice is not modified.
func Rank(candidates []Candidate) []Candidate {
	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].LibraryID < ranked[j].LibraryID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Classify applies the threshold policy to a candidate set. A top score at or
// above Match is confident only when no runner-up reaches Review; otherwise
// every candidate at or above Review is returned for a human to pick.
func Classify(t Thresholds, candidates []Candidate) Outcome {
	ranked := Rank(candidates)
	if len(ranked) == 0 {
		return Outcome{Kind: Unmatched}
	}
	top := ranked[0]
	second := 0
	if len(ranked) > 1 {
		second = ranked[1].Score
	}
	outcome := Outcome{TopScore: top.Score}
	switch {
	case top.Score >= t.Match && second < t.Review:
		outcome.Kind = Confident
		outcome.LibraryID = top.LibraryID
		outcome.Score = top.Score
		outcome.Method = MethodScored
	case top.Score >= t.Review:
		return forReview(t, ranked)
	default:
		outcome.Kind = Unmatched
	}
	return outcome
}

// forReview builds the Ambiguous outcome for ranked candidates whose top score
// reaches Review.
func forReview(t Thresholds, ranked []Candidate) Outcome {
	outcome := Outcome{Kind: Ambiguous}
	if len(ranked) > 0 {
		outcome.TopScore = ranked[0].Score
	}
	for _, candidate := range ranked {
		if candidate.Score < t.Review {
			break
		}
		outcome.Candidates = append(outcome.Candidates, candidate)
	}
	return outcome
}

// topLibraryID is the best-ranked record of a Confident or Ambiguous outcome.
func (o Outcome) topLibraryID() (int, bool) {
	switch {
	case o.Kind == Confident:
		return o.LibraryID, true
	case o.Kind == Ambiguous && len(o.Candidates) > 0:
		return o.Candidates[0].LibraryID, true
	}
	return 0, false
}

package identification

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
)

// Matcher classifies every audiobook of a feed against a library snapshot.
type Matcher struct {
	thresholds  Thresholds
	titleWeight int
	logger      *slog.Logger
}

// NewMatcher validates the policy and returns a matcher.
func NewMatcher(thresholds Thresholds, titleWeight int, logger *slog.Logger) (*Matcher, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{
		thresholds:  thresholds,
		titleWeight: clamp(titleWeight, 0, 100),
		logger:      logging.NewComponentLogger(logger, "matcher"),
	}, nil
}

// Thresholds returns the policy in use.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

type libraryEntry struct {
	record calibre.Record
	key    Key
}

// MatchAll returns one outcome per feed record, in feed order.
//
// Records that already carry an ASIN short-circuit to a confident match and
// are never scored. Every other audiobook is scored against all unlinked
// records. When several audiobooks reaching Review share the same top record,
// none of them is confident on it: each goes to review with its candidates.
// The result does not depend on feed order.
func (m *Matcher) MatchAll(feed []audible.Record, library []calibre.Record) []Outcome {
	linked := m.linkedIndex(library)

	var eligible []libraryEntry
	for _, rec := range library {
		if rec.Linked() {
			continue
		}
		eligible = append(eligible, libraryEntry{record: rec, key: NewKey(rec.Title, rec.Authors)})
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].record.ID < eligible[j].record.ID })

	outcomes := make([]Outcome, len(feed))
	ranked := make([][]Candidate, len(feed))
	contenders := make(map[int][]string)
	for i, rec := range feed {
		asin := audible.NormalizeASIN(rec.ASIN)
		if id, ok := linked[asin]; ok {
			outcomes[i] = Outcome{
				ASIN: asin, Kind: Confident, LibraryID: id, Score: 100, TopScore: 100, Method: MethodASINLink,
			}
			continue
		}

		key := NewKey(rec.FullTitle(), rec.Authors)
		candidates := make([]Candidate, 0, len(eligible))
		for _, entry := range eligible {
			candidates = append(candidates, Candidate{
				LibraryID: entry.record.ID,
				Title:     entry.record.Title,
				Score:     Score(key, entry.key, m.titleWeight),
			})
		}
		ranked[i] = Rank(candidates)
		outcome := Classify(m.thresholds, ranked[i])
		outcome.ASIN = asin
		outcomes[i] = outcome
		if id, ok := outcome.topLibraryID(); ok {
			contenders[id] = append(contenders[id], asin)
		}
	}

	for i, rec := range feed {
		outcome := outcomes[i]
		if outcome.Kind == Confident && outcome.Method == MethodScored {
			if rivals := contenders[outcome.LibraryID]; len(rivals) > 1 {
				m.logContested(outcome, rivals)
				contested := forReview(m.thresholds, ranked[i])
				contested.ASIN = outcome.ASIN
				outcome = contested
				outcomes[i] = outcome
			}
		}
		m.logOutcome(rec, outcome)
	}
	return outcomes
}

func (m *Matcher) logContested(outcome Outcome, rivals []string) {
	attrs := logging.DecisionAttrs("match", Ambiguous.String(), "top record shared with other audiobooks")
	attrs = append(attrs,
		logging.String(logging.FieldASIN, outcome.ASIN),
		logging.Int(logging.FieldLibraryID, outcome.LibraryID),
		logging.Strings("contenders", rivals),
	)
	m.logger.Info("confident match contested", logging.Args(attrs...)...)
}

// linkedIndex maps ASIN to the lowest library id carrying it.
func (m *Matcher) linkedIndex(library []calibre.Record) map[string]int {
	index := make(map[string]int)
	for _, rec := range library {
		if !rec.Linked() {
			continue
		}
		asin := audible.NormalizeASIN(rec.ASIN)
		existing, ok := index[asin]
		switch {
		case !ok:
			index[asin] = rec.ID
		case rec.ID < existing:
			index[asin] = rec.ID
			fallthrough
		default:
			logging.WarnWithContext(m.logger, "asin linked to several library records", "duplicate_asin",
				logging.String(logging.FieldASIN, asin),
				logging.Int(logging.FieldLibraryID, rec.ID),
				logging.String(logging.FieldErrorHint, "clear audible_asin on the duplicate record"),
				logging.String(logging.FieldImpact, "lowest id is used"))
		}
	}
	return index
}

func (m *Matcher) logOutcome(rec audible.Record, outcome Outcome) {
	reason := "top score " + strconv.Itoa(outcome.TopScore)
	attrs := logging.DecisionAttrs("match", outcome.Kind.String(), reason)
	attrs = append(attrs, logging.String(logging.FieldASIN, outcome.ASIN), logging.String("title", rec.Title))
	if outcome.Kind == Confident {
		attrs = append(attrs, logging.Int(logging.FieldLibraryID, outcome.LibraryID))
	}
	if outcome.Kind == Ambiguous {
		attrs = append(attrs, logging.Int("candidates", len(outcome.Candidates)))
	}
	m.logger.Debug("audiobook classified", logging.Args(attrs...)...)
}

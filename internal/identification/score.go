package identification

import (
	"math"

	"github.com/bergsfam/calibre-audible-integration/internal/textutil"
)

// DefaultTitleWeight is the title share of the combined score, in percent.
const DefaultTitleWeight = 70

// subtitleFactor discounts a match that only holds once subtitles are dropped.
const subtitleFactor = 0.9

// Key is the precomputed comparable form of one record.
type Key struct {
	Title   NormalizedTitle
	Authors string

	full    textutil.TokenSet
	main    textutil.TokenSet
	authors textutil.TokenSet
}

// NewKey normalises a title and author list.
func NewKey(title string, authors []string) Key {
	normalized := NormalizeTitle(title)
	canonical := NormalizeAuthors(authors)
	return Key{
		Title:   normalized,
		Authors: canonical,
		full:    textutil.NewTokenSet(normalized.Full),
		main:    textutil.NewTokenSet(normalized.Main),
		authors: textutil.NewTokenSet(canonical),
	}
}

// Score returns the similarity of two keys in [0,100]. titleWeight is the
// title share in percent. The result does not depend on argument order.
func Score(a, b Key, titleWeight int) int {
	if a.Title.Full == "" || b.Title.Full == "" {
		return 0
	}
	if a.Title.Full == b.Title.Full && a.Authors == b.Authors {
		return 100
	}
	titleSim := math.Max(
		textutil.Jaccard(a.full, b.full),
		subtitleFactor*textutil.Jaccard(a.main, b.main),
	)
	authorSim := textutil.Jaccard(a.authors, b.authors)
	w := float64(clamp(titleWeight, 0, 100)) / 100
	return clamp(int(math.Round(100*(w*titleSim+(1-w)*authorSim))), 0, 100)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

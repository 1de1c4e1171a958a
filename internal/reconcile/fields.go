package reconcile

import (
	"strings"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
)

// UnknownAuthor is used for placeholders when the feed lists no author.
const UnknownAuthor = "Unknown"

// LinkPatch is the field update that links a library record to an audiobook.
// A nil score clears any stored score, which marks a manual link.
func LinkPatch(rec audible.Record, lib calibre.Record, score *int) calibre.Patch {
	patch := annotations(rec)
	if score != nil {
		value := *score
		patch.MatchScore = &value
	} else {
		patch.ClearScore = true
	}
	status := calibre.DeriveFormatStatus(lib.HasEbook(), true)
	patch.FormatStatus = &status
	return patch
}

// PlaceholderFor builds the minimal record inserted for an audiobook that has
// no library counterpart. Placeholders never carry a match score.
func PlaceholderFor(rec audible.Record, tags []string) calibre.Placeholder {
	authors := rec.Authors
	if len(authors) == 0 {
		authors = []string{UnknownAuthor}
	}
	patch := annotations(rec)
	status := calibre.FormatAudibleOnly
	patch.FormatStatus = &status
	return calibre.Placeholder{
		Title:   rec.FullTitle(),
		Authors: append([]string(nil), authors...),
		Tags:    append([]string(nil), tags...),
		Patch:   patch,
	}
}

// annotations copies the informational audiobook fields. Blank values are
// left out so existing library data is not erased.
func annotations(rec audible.Record) calibre.Patch {
	owned := true
	asin := audible.NormalizeASIN(rec.ASIN)
	patch := calibre.Patch{Owned: &owned, ASIN: &asin}
	patch.Narrators = optionalString(rec.NarratorList())
	if rec.RuntimeMinutes > 0 {
		minutes := rec.RuntimeMinutes
		patch.Minutes = &minutes
	}
	patch.PurchaseDate = optionalString(rec.PurchaseDate)
	patch.Series = optionalString(rec.SeriesName)
	patch.SeriesSequence = optionalString(rec.SeriesSequence)
	patch.ReleaseDate = optionalString(rec.ReleaseDate)
	return patch
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

package calibre

import (
	"strconv"
)

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Owned          *bool
	ASIN           *string
	Narrators      *string
	Minutes        *int
	PurchaseDate   *string
	MatchScore     *int
	ClearScore     bool
	FormatStatus   *FormatStatus
	Series         *string
	SeriesSequence *string
	ReleaseDate    *string
}

// FieldValue is one column assignment in calibredb set_metadata form.
type FieldValue struct {
	Column string
	Value  string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the column assignments in a fixed order. A cleared score is an
// empty value, which calibredb treats as null.
func (p Patch) Fields() []FieldValue {
	var out []FieldValue
	add := func(column, value string) {
		out = append(out, FieldValue{Column: column, Value: value})
	}
	if p.Owned != nil {
		add(ColumnOwned, yesNo(*p.Owned))
	}
	if p.ASIN != nil {
		add(ColumnASIN, *p.ASIN)
	}
	if p.Narrators != nil {
		add(ColumnNarrators, *p.Narrators)
	}
	if p.Minutes != nil {
		add(ColumnMinutes, strconv.Itoa(*p.Minutes))
	}
	if p.PurchaseDate != nil {
		add(ColumnPurchaseDate, *p.PurchaseDate)
	}
	switch {
	case p.ClearScore:
		add(ColumnMatchScore, "")
	case p.MatchScore != nil:
		add(ColumnMatchScore, strconv.Itoa(*p.MatchScore))
	}
	if p.FormatStatus != nil {
		add(ColumnFormatStatus, string(*p.FormatStatus))
	}
	if p.Series != nil {
		add(ColumnSeries, *p.Series)
	}
	if p.SeriesSequence != nil {
		add(ColumnSeriesSequence, *p.SeriesSequence)
	}
	if p.ReleaseDate != nil {
		add(ColumnReleaseDate, *p.ReleaseDate)
	}
	return out
}

// Apply copies the patch onto rec.
func (p Patch) Apply(rec *Record) {
	if rec == nil {
		return
	}
	if p.Owned != nil {
		rec.Owned = *p.Owned
	}
	if p.ASIN != nil {
		rec.ASIN = *p.ASIN
	}
	if p.Narrators != nil {
		rec.Narrators = *p.Narrators
	}
	if p.Minutes != nil {
		rec.Minutes = *p.Minutes
	}
	if p.PurchaseDate != nil {
		rec.PurchaseDate = *p.PurchaseDate
	}
	switch {
	case p.ClearScore:
		rec.MatchScore = nil
	case p.MatchScore != nil:
		score := *p.MatchScore
		rec.MatchScore = &score
	}
	if p.FormatStatus != nil {
		rec.FormatStatus = *p.FormatStatus
	}
	if p.Series != nil {
		rec.Series = *p.Series
	}
	if p.SeriesSequence != nil {
		rec.SeriesSequence = *p.SeriesSequence
	}
	if p.ReleaseDate != nil {
		rec.ReleaseDate = *p.ReleaseDate
	}
}

// Placeholder is the initial field set for a new Audible-only record.
type Placeholder struct {
	Title   string
	Authors []string
	Tags    []string
	Patch   Patch
}

func yesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

package audible

import "strings"

// Record is one audiobook row from the export. Records are immutable once loaded.
type Record struct {
	ASIN           string
	Title          string
	Subtitle       string
	Authors        []string
	Narrators      []string
	RuntimeMinutes int
	PurchaseDate   string
	ReleaseDate    string
	SeriesName     string
	SeriesSequence string
	// Line is the 1-based line of the row in the source file, header included.
	Line int
}

// FullTitle joins title and subtitle the way the library usually stores them.
func (r Record) FullTitle() string {
	title := strings.TrimSpace(r.Title)
	subtitle := strings.TrimSpace(r.Subtitle)
	if subtitle == "" || strings.Contains(strings.ToLower(title), strings.ToLower(subtitle)) {
		return title
	}
	if title == "" {
		return subtitle
	}
	return title + ": " + subtitle
}

// AuthorList renders authors for display and report columns.
func (r Record) AuthorList() string {
	return strings.Join(r.Authors, ", ")
}

// NarratorList renders narrators in the form stored in the library column.
func (r Record) NarratorList() string {
	return strings.Join(r.Narrators, ", ")
}

// Feed is an ordered, ASIN-indexed collection of records.
type Feed struct {
	Path     string
	Records  []Record
	Warnings []string
	byASIN   map[string]int
}

// NewFeed indexes records by ASIN. Callers must ensure ASINs are unique.
func NewFeed(path string, records []Record) *Feed {
	feed := &Feed{Path: path, Records: records, byASIN: make(map[string]int, len(records))}
	for idx, rec := range records {
		feed.byASIN[rec.ASIN] = idx
	}
	return feed
}

// Lookup returns the record with the given ASIN.
func (f *Feed) Lookup(asin string) (Record, bool) {
	if f == nil {
		return Record{}, false
	}
	idx, ok := f.byASIN[NormalizeASIN(asin)]
	if !ok {
		return Record{}, false
	}
	return f.Records[idx], true
}

// Len reports the number of records.
func (f *Feed) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Records)
}

// NormalizeASIN trims and upper-cases an identifier.
func NormalizeASIN(asin string) string {
	return strings.ToUpper(strings.TrimSpace(asin))
}

package calibre

import (
	"strings"
)

// FormatStatus is the value of the format_status enumeration column.
type FormatStatus string

const (
	FormatEbookOnly   FormatStatus = "Ebook only"
	FormatAudibleOnly FormatStatus = "Audible only"
	FormatBoth        FormatStatus = "Both"
	FormatUnknown     FormatStatus = "Unknown"
)

// FormatStatuses lists the enumeration values in column order.
var FormatStatuses = []FormatStatus{FormatEbookOnly, FormatAudibleOnly, FormatBoth, FormatUnknown}

// DeriveFormatStatus is the only producer of format_status values.
func DeriveFormatStatus(hasEbook, hasAudible bool) FormatStatus {
	switch {
	case hasEbook && hasAudible:
		return FormatBoth
	case hasAudible:
		return FormatAudibleOnly
	case hasEbook:
		return FormatEbookOnly
	default:
		return FormatUnknown
	}
}

// ParseFormatStatus maps a stored value back to the enumeration.
func ParseFormatStatus(raw string) FormatStatus {
	raw = strings.TrimSpace(raw)
	for _, status := range FormatStatuses {
		if strings.EqualFold(raw, string(status)) {
			return status
		}
	}
	return ""
}

// Record is one library book with its audiobook annotations.
type Record struct {
	ID             int
	Title          string
	Authors        []string
	Formats        []string
	Tags           []string
	Owned          bool
	ASIN           string
	Narrators      string
	Minutes        int
	PurchaseDate   string
	MatchScore     *int
	FormatStatus   FormatStatus
	Series         string
	SeriesSequence string
	ReleaseDate    string
}

// HasEbook reports whether the record has at least one book file attached.
func (r Record) HasEbook() bool {
	return len(r.Formats) > 0
}

// Linked reports whether the record already carries an audiobook identifier.
func (r Record) Linked() bool {
	return strings.TrimSpace(r.ASIN) != ""
}

// AuthorList renders authors the way calibre displays them.
func (r Record) AuthorList() string {
	return strings.Join(r.Authors, " & ")
}

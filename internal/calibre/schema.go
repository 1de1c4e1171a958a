package calibre

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// Custom column labels, without the leading '#'.
const (
	ColumnOwned          = "audible_owned"
	ColumnASIN           = "audible_asin"
	ColumnNarrators      = "audible_narrators"
	ColumnMinutes        = "audible_minutes"
	ColumnPurchaseDate   = "audible_purchase_date"
	ColumnMatchScore     = "audible_match_score"
	ColumnFormatStatus   = "format_status"
	ColumnSeries         = "audible_series"
	ColumnSeriesSequence = "audible_series_sequence"
	ColumnReleaseDate    = "audible_release_date"
)

// ColumnSpec describes a custom column the library is expected to define.
type ColumnSpec struct {
	Label    string
	Type     string
	Required bool
}

// Columns is the full column contract in display order.
var Columns = []ColumnSpec{
	{Label: ColumnOwned, Type: "Yes/No", Required: true},
	{Label: ColumnASIN, Type: "Text", Required: true},
	{Label: ColumnNarrators, Type: "Text", Required: true},
	{Label: ColumnMinutes, Type: "Int", Required: true},
	{Label: ColumnPurchaseDate, Type: "Date", Required: true},
	{Label: ColumnMatchScore, Type: "Int", Required: true},
	{Label: ColumnFormatStatus, Type: "Enum: " + formatStatusValues(), Required: true},
	{Label: ColumnSeries, Type: "Text"},
	{Label: ColumnSeriesSequence, Type: "Text"},
	{Label: ColumnReleaseDate, Type: "Date"},
}

func formatStatusValues() string {
	values := make([]string, len(FormatStatuses))
	for i, status := range FormatStatuses {
		values[i] = string(status)
	}
	return strings.Join(values, ", ")
}

// ColumnSet is the set of custom column labels defined in a library.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from labels, ignoring any leading '#' or '*'.
func NewColumnSet(labels ...string) ColumnSet {
	set := make(ColumnSet, len(labels))
	for _, label := range labels {
		label = strings.TrimLeft(strings.TrimSpace(label), "#*")
		if label != "" {
			set[label] = struct{}{}
		}
	}
	return set
}

// Has reports whether label is defined.
func (s ColumnSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Labels returns the defined labels sorted.
func (s ColumnSet) Labels() []string {
	out := make([]string, 0, len(s))
	for label := range s {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Missing returns required labels that are not defined.
func (s ColumnSet) Missing() []string {
	var missing []string
	for _, spec := range Columns {
		if spec.Required && !s.Has(spec.Label) {
			missing = append(missing, spec.Label)
		}
	}
	return missing
}

// CheckSchema fails with ErrSchemaMismatch when a required column is absent.
func CheckSchema(columns ColumnSet) error {
	missing := columns.Missing()
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrSchemaMismatch, "schema", "custom columns",
		fmt.Sprintf("library is missing required column(s): %s (run print-columns for the full list)", strings.Join(missing, ", ")), nil)
}

// Filter drops assignments to optional columns the library does not define.
func (s ColumnSet) Filter(fields []FieldValue) []FieldValue {
	out := make([]FieldValue, 0, len(fields))
	for _, field := range fields {
		if s.Has(field.Column) {
			out = append(out, field)
		}
	}
	return out
}

package audible

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

var asinPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// personSplit mirrors the export's list separators: commas, ampersands, and "and".
var personSplit = regexp.MustCompile(`(?i)\s*(?:,|&|;|\s+and\s+)\s*`)

var requiredColumns = []string{"asin", "title", "authors"}

// columnAliases maps accepted header names to the canonical column.
var columnAliases = map[string]string{
	"asin":               "asin",
	"title":              "title",
	"subtitle":           "subtitle",
	"authors":            "authors",
	"author":             "authors",
	"narrators":          "narrators",
	"narrator":           "narrators",
	"runtime_length_min": "runtime",
	"runtime":            "runtime",
	"runtime_minutes":    "runtime",
	"purchase_date":      "purchase_date",
	"release_date":       "release_date",
	"series_title":       "series",
	"series_name":        "series",
	"series":             "series",
	"series_sequence":    "series_sequence",
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// LoadFile reads and parses the export at path.
func LoadFile(path string) (*Feed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFeedParse, "load", "open feed", path, err)
	}
	defer file.Close()
	return Parse(file, path)
}

// Parse reads an export from r. name is used in error messages only.
func Parse(r io.Reader, name string) (*Feed, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, feedError(name, 1, "file is empty", nil)
		}
		return nil, feedError(name, 1, "read header", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, feedError(name, 1, err.Error(), nil)
	}

	var (
		records  []Record
		warnings []string
		seen     = make(map[string]int)
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, feedError(name, line, "malformed row", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlankRow(row) {
			continue
		}
		rec, rowWarnings, err := parseRow(row, columns, line)
		if err != nil {
			return nil, feedError(name, line, err.Error(), nil)
		}
		if first, dup := seen[rec.ASIN]; dup {
			return nil, feedError(name, line, fmt.Sprintf("duplicate asin %s (first seen on line %d)", rec.ASIN, first), nil)
		}
		seen[rec.ASIN] = line
		records = append(records, rec)
		warnings = append(warnings, rowWarnings...)
	}

	feed := NewFeed(name, records)
	feed.Warnings = warnings
	return feed, nil
}

func feedError(name string, line int, message string, err error) error {
	return services.Wrap(services.ErrFeedParse, "load", name, fmt.Sprintf("line %d: %s", line, message), err)
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for idx, raw := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		canonical, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, dup := columns[canonical]; dup {
			continue
		}
		columns[canonical] = idx
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int, line int) (Record, []string, error) {
	get := func(col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	asin := NormalizeASIN(get("asin"))
	if asin == "" {
		return Record{}, nil, errors.New("empty asin")
	}
	if !asinPattern.MatchString(asin) {
		return Record{}, nil, fmt.Errorf("invalid asin %q", asin)
	}

	rec := Record{
		ASIN:           asin,
		Title:          get("title"),
		Subtitle:       get("subtitle"),
		Authors:        SplitPeople(get("authors")),
		Narrators:      SplitPeople(get("narrators")),
		SeriesName:     get("series"),
		SeriesSequence: get("series_sequence"),
		Line:           line,
	}

	var warnings []string
	if raw := get("runtime"); raw != "" {
		minutes, err := parseMinutes(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: asin %s: ignoring runtime %q", line, asin, raw))
		} else {
			rec.RuntimeMinutes = minutes
		}
	}
	if raw := get("purchase_date"); raw != "" {
		date, ok := ParseDate(raw)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("line %d: asin %s: ignoring purchase_date %q", line, asin, raw))
		}
		rec.PurchaseDate = date
	}
	if raw := get("release_date"); raw != "" {
		date, ok := ParseDate(raw)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("line %d: asin %s: ignoring release_date %q", line, asin, raw))
		}
		rec.ReleaseDate = date
	}
	return rec, warnings, nil
}

// SplitPeople splits an author or narrator cell into individual names.
func SplitPeople(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := personSplit.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseDate normalizes a timestamp or date to YYYY-MM-DD.
func ParseDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("2006-01-02"), true
		}
	}
	return "", false
}

func parseMinutes(raw string) (int, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("negative runtime %v", value)
	}
	return int(value), nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package calibre

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	columnLinePattern = regexp.MustCompile(`^\s*#?([A-Za-z0-9_]+)\s*\(\d+\)`)
	addedIDsPattern   = regexp.MustCompile(`(?i)added book ids?\s*:\s*([0-9][0-9,\s]*)`)
	anyNumberPattern  = regexp.MustCompile(`\b(\d+)\b`)
)

// parseCustomColumns accepts the plain "label (num)" listing as well as JSON
// object or array output from newer calibredb releases.
func parseCustomColumns(lines []string) ColumnSet {
	joined := strings.TrimSpace(strings.Join(lines, "\n"))
	if strings.HasPrefix(joined, "{") {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(joined), &obj); err == nil {
			labels := make([]string, 0, len(obj))
			for key := range obj {
				labels = append(labels, key)
			}
			return NewColumnSet(labels...)
		}
	}
	if strings.HasPrefix(joined, "[") {
		var entries []struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal([]byte(joined), &entries); err == nil {
			labels := make([]string, 0, len(entries))
			for _, entry := range entries {
				labels = append(labels, entry.Label)
			}
			return NewColumnSet(labels...)
		}
	}
	var labels []string
	for _, line := range lines {
		if m := columnLinePattern.FindStringSubmatch(line); m != nil {
			labels = append(labels, m[1])
		}
	}
	return NewColumnSet(labels...)
}

func parseList(payload string) ([]Record, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for idx, row := range rows {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", idx, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecord(row map[string]json.RawMessage) (Record, error) {
	id, ok := rawInt(row["id"])
	if !ok {
		return Record{}, errors.New("missing id")
	}
	rec := Record{
		ID:             id,
		Title:          rawString(row["title"]),
		Authors:        splitAuthors(rawString(row["authors"])),
		Formats:        rawStrings(row["formats"]),
		Tags:           rawStrings(row["tags"]),
		Owned:          rawBool(column(row, ColumnOwned)),
		ASIN:           strings.ToUpper(strings.TrimSpace(rawString(column(row, ColumnASIN)))),
		Narrators:      rawString(column(row, ColumnNarrators)),
		PurchaseDate:   datePart(rawString(column(row, ColumnPurchaseDate))),
		FormatStatus:   ParseFormatStatus(rawString(column(row, ColumnFormatStatus))),
		Series:         rawString(column(row, ColumnSeries)),
		SeriesSequence: rawString(column(row, ColumnSeriesSequence)),
		ReleaseDate:    datePart(rawString(column(row, ColumnReleaseDate))),
	}
	if minutes, ok := rawInt(column(row, ColumnMinutes)); ok {
		rec.Minutes = minutes
	}
	if score, ok := rawInt(column(row, ColumnMatchScore)); ok {
		rec.MatchScore = &score
	}
	return rec, nil
}

// column finds a custom column value under either the "*label" or "#label" key.
func column(row map[string]json.RawMessage, label string) json.RawMessage {
	for _, key := range []string{"*" + label, "#" + label, label} {
		if value, ok := row[key]; ok {
			return value
		}
	}
	return nil
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return strings.Trim(string(raw), `"`)
}

func rawStrings(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	if s := rawString(raw); s != "" {
		return strings.Split(s, ",")
	}
	return nil
}

func rawInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	if n, err := strconv.Atoi(strings.TrimSpace(rawString(raw))); err == nil {
		return n, true
	}
	return 0, false
}

func rawBool(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	switch strings.ToLower(rawString(raw)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// datePart trims calibre's timestamp form ("2021-03-04T00:00:00+00:00") to the date.
func datePart(value string) string {
	if len(value) >= 10 && value[4] == '-' && value[7] == '-' {
		return value[:10]
	}
	return value
}

// splitAuthors splits calibre's author field, which joins names with " & ".
func splitAuthors(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "&")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAddedID(lines []string) (int, error) {
	joined := strings.Join(lines, "\n")
	if m := addedIDsPattern.FindStringSubmatch(joined); m != nil {
		first := strings.TrimSpace(strings.SplitN(m[1], ",", 2)[0])
		if id, err := strconv.Atoi(first); err == nil {
			return id, nil
		}
	}
	if m := anyNumberPattern.FindStringSubmatch(joined); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unable to parse new book id from output %q", strings.TrimSpace(joined))
}

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// CandidateRef is one candidate parsed back from ambiguous.csv.
type CandidateRef struct {
	LibraryID int
	Score     int
	Title     string
}

// AmbiguousEntry is one row of ambiguous.csv.
type AmbiguousEntry struct {
	ASIN       string
	Title      string
	Authors    string
	TopScore   int
	Candidates []CandidateRef
}

// MappingRow is one row of a human-edited mapping file. Values are raw; the
// resolution package validates them.
type MappingRow struct {
	ASIN         string
	CalibreID    string
	CalibreTitle string
	AudibleOnly  string
	Line         int
}

// ReadAmbiguous loads an ambiguous.csv written by Write.
func ReadAmbiguous(path string) ([]AmbiguousEntry, error) {
	rows, err := readTable(path, "asin")
	if err != nil {
		return nil, err
	}
	entries := make([]AmbiguousEntry, 0, len(rows))
	for _, row := range rows {
		entry := AmbiguousEntry{
			ASIN:    strings.ToUpper(row.get("asin")),
			Title:   row.get("audible_title"),
			Authors: row.get("audible_authors"),
		}
		if entry.ASIN == "" {
			continue
		}
		if raw := row.get("top_score"); raw != "" {
			score, err := strconv.Atoi(raw)
			if err != nil {
				return nil, readError(path, row.line, "top_score is not a number", err)
			}
			entry.TopScore = score
		}
		candidates, err := ParseCandidates(row.get("candidates"))
		if err != nil {
			return nil, readError(path, row.line, "bad candidates column", err)
		}
		entry.Candidates = candidates
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseCandidates parses the "id:score:title; ..." candidate column.
func ParseCandidates(raw string) ([]CandidateRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []CandidateRef
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("candidate %q: want id:score:title", part)
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("candidate %q: bad id", part)
		}
		score, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("candidate %q: bad score", part)
		}
		ref := CandidateRef{LibraryID: id, Score: score}
		if len(fields) == 3 {
			ref.Title = strings.TrimSpace(fields[2])
		}
		out = append(out, ref)
	}
	return out, nil
}

// ReadMapping loads a mapping CSV. Only asin is required in the header;
// template columns beyond the four mapping fields are ignored.
func ReadMapping(path string) ([]MappingRow, error) {
	rows, err := readTable(path, "asin")
	if err != nil {
		return nil, err
	}
	out := make([]MappingRow, 0, len(rows))
	for _, row := range rows {
		mapping := MappingRow{
			ASIN:         row.get("asin"),
			CalibreID:    row.get("calibre_id"),
			CalibreTitle: row.get("calibre_title"),
			AudibleOnly:  row.get("audible_only"),
			Line:         row.line,
		}
		if mapping.ASIN == "" && mapping.CalibreID == "" && mapping.CalibreTitle == "" && mapping.AudibleOnly == "" {
			continue
		}
		out = append(out, mapping)
	}
	return out, nil
}

type tableRow struct {
	line   int
	values map[string]string
}

func (r tableRow) get(column string) string {
	return strings.TrimSpace(r.values[column])
}

func readTable(path string, required ...string) ([]tableRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, readError(path, 0, "open", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, readError(path, 1, "file is empty", nil)
		}
		return nil, readError(path, 1, "read header", err)
	}
	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[i] = name
		present[name] = true
	}
	for _, name := range required {
		if !present[name] {
			return nil, readError(path, 1, fmt.Sprintf("missing column %q", name), nil)
		}
	}

	var rows []tableRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(path, 0, "read row", err)
		}
		line, _ := reader.FieldPos(0)
		values := make(map[string]string, len(columns))
		for i, value := range record {
			if i < len(columns) {
				values[columns[i]] = value
			}
		}
		rows = append(rows, tableRow{line: line, values: values})
	}
	return rows, nil
}

func readError(path string, line int, message string, err error) error {
	if line > 0 {
		message = fmt.Sprintf("line %d: %s", line, message)
	}
	return services.Wrap(services.ErrFeedParse, "report", path, message, err)
}

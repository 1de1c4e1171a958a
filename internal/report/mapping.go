package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultMappingFile is the template name used when no output path is given.
const DefaultMappingFile = "mapping_template.csv"

var mappingTemplateHeader = []string{"asin", "audible_title", "audible_authors", "calibre_id", "calibre_title", "audible_only", "top_score", "candidates"}

// WriteMappingTemplate writes a mapping file pre-filled from ambiguous entries.
// The decision columns are left blank for a human to fill in.
func WriteMappingTemplate(path string, entries []AmbiguousEntry) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create mapping dir: %w", err)
		}
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ASIN, entry.Title, entry.Authors, "", "", "",
			strconv.Itoa(entry.TopScore), formatRefs(entry.Candidates),
		})
	}
	return writeCSV(path, mappingTemplateHeader, rows)
}

func formatRefs(refs []CandidateRef) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		parts = append(parts, fmt.Sprintf("%d:%d:%s", ref.LibraryID, ref.Score, ref.Title))
	}
	return strings.Join(parts, "; ")
}

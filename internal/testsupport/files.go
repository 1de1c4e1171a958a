package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FeedHeader is the column set produced by audible-cli library export that
// the tests rely on.
const FeedHeader = "asin,title,subtitle,authors,narrators,runtime_length_min,purchase_date,release_date,series_title,series_sequence"

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteFeed writes an Audible export with FeedHeader and the given rows into
// dir and returns its path. Rows are raw CSV lines.
func WriteFeed(t testing.TB, dir string, rows ...string) string {
	t.Helper()

	lines := append([]string{FeedHeader}, rows...)
	return WriteFile(t, filepath.Join(dir, "library.csv"), strings.Join(lines, "\n")+"\n")
}

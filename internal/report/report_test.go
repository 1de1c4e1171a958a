package report_test

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/identification"
	"github.com/bergsfam/calibre-audible-integration/internal/reconcile"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
	"github.com/bergsfam/calibre-audible-integration/internal/testsupport"
)

func samplePlan() *reconcile.Plan {
	hobbitLib := &calibre.Record{ID: 7, Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}}
	update := reconcile.NewUpdate("B001", 7, calibre.Patch{}, reconcile.ReasonMatched)
	update.State = reconcile.StateApplied
	insert := reconcile.NewInsert("B003", calibre.Placeholder{Title: "Good Omens"}, reconcile.ReasonPlaceholder)
	insert.State = reconcile.StateApplied
	insert.LibraryID = 44

	return &reconcile.Plan{
		Items: []reconcile.Item{
			{
				Record:  audible.Record{ASIN: "B001", Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}},
				Outcome: identification.Outcome{ASIN: "B001", Kind: identification.Confident, LibraryID: 7, Score: 100, TopScore: 100, Method: identification.MethodScored},
				Library: hobbitLib,
				Action:  update,
			},
			{
				Record: audible.Record{ASIN: "B002", Title: "Dune", Authors: []string{"Frank Herbert"}},
				Outcome: identification.Outcome{ASIN: "B002", Kind: identification.Ambiguous, TopScore: 100, Candidates: []identification.Candidate{
					{LibraryID: 1, Title: "Dune", Score: 100, Rank: 1},
					{LibraryID: 2, Title: "Dune; Deluxe", Score: 100, Rank: 2},
					{LibraryID: 3, Title: "Dune Messiah", Score: 65, Rank: 3},
				}},
				Action: reconcile.NewNoOp("B002", 0, reconcile.ReasonNeedsReview),
			},
			{
				Record:  audible.Record{ASIN: "B003", Title: "Good Omens", Authors: []string{"Terry Pratchett", "Neil Gaiman"}},
				Outcome: identification.Outcome{ASIN: "B003", Kind: identification.Unmatched, TopScore: 12},
				Action:  insert,
			},
		},
		Actions: []*reconcile.Action{update, insert},
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), report.DirName(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)))
	if !strings.HasSuffix(dir, "reports_20240506_070809") {
		t.Fatalf("unexpected dir name %s", dir)
	}
	info := report.RunInfo{RunID: "run-1", FeedPath: "library.csv", Library: "/books", Thresholds: identification.DefaultThresholds()}
	paths, err := report.Write(dir, info, samplePlan(), 2)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	matched := readRows(t, paths.Matched)
	if len(matched) != 2 || matched[1][0] != "B001" || matched[1][3] != "7" || matched[1][4] != "The Hobbit" || matched[1][8] != "update" || matched[1][9] != "applied" {
		t.Fatalf("unexpected matched rows %v", matched)
	}

	ambiguous := readRows(t, paths.Ambiguous)
	if len(ambiguous) != 2 || ambiguous[1][4] != "1:100:Dune; 2:100:Dune, Deluxe" {
		t.Fatalf("unexpected ambiguous rows %v", ambiguous)
	}

	unmatched := readRows(t, paths.Unmatched)
	if len(unmatched) != 2 || unmatched[1][2] != "Terry Pratchett, Neil Gaiman" || unmatched[1][4] != "insert:44" {
		t.Fatalf("unexpected unmatched rows %v", unmatched)
	}

	summary, err := os.ReadFile(paths.Summary)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	for _, fragment := range []string{"run-1", "Ambiguous:", "Match threshold:       90"} {
		if !strings.Contains(string(summary), fragment) {
			t.Fatalf("summary missing %q:\n%s", fragment, summary)
		}
	}
}

func TestAmbiguousRoundTripAndTemplate(t *testing.T) {
	dir := t.TempDir()
	paths, err := report.Write(dir, report.RunInfo{}, samplePlan(), 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := report.ReadAmbiguous(paths.Ambiguous)
	if err != nil {
		t.Fatalf("ReadAmbiguous: %v", err)
	}
	if len(entries) != 1 || entries[0].ASIN != "B002" || entries[0].TopScore != 100 || len(entries[0].Candidates) != 3 {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].Candidates[2] != (report.CandidateRef{LibraryID: 3, Score: 65, Title: "Dune Messiah"}) {
		t.Fatalf("unexpected candidate %+v", entries[0].Candidates[2])
	}

	template := filepath.Join(dir, "out", report.DefaultMappingFile)
	if err := report.WriteMappingTemplate(template, entries); err != nil {
		t.Fatalf("WriteMappingTemplate: %v", err)
	}
	rows := readRows(t, template)
	if strings.Join(rows[0], ",") != "asin,audible_title,audible_authors,calibre_id,calibre_title,audible_only,top_score,candidates" {
		t.Fatalf("unexpected template header %v", rows[0])
	}
	mapping, err := report.ReadMapping(template)
	if err != nil {
		t.Fatalf("ReadMapping: %v", err)
	}
	if len(mapping) != 1 || mapping[0].ASIN != "B002" || mapping[0].CalibreID != "" || mapping[0].Line != 2 {
		t.Fatalf("unexpected mapping %+v", mapping)
	}
}

func TestReadMapping(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFile(t, filepath.Join(dir, "mapping.csv"),
		"asin,calibre_id,calibre_title,audible_only\n"+
			"B001,7,,\n"+
			",,,\n"+
			"B9,,,true\n"+
			"B010,,\"Dune, Deluxe\",\n")
	rows, err := report.ReadMapping(path)
	if err != nil {
		t.Fatalf("ReadMapping: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected blank row to be skipped, got %+v", rows)
	}
	if rows[1].ASIN != "B9" || rows[1].AudibleOnly != "true" || rows[1].Line != 4 {
		t.Fatalf("unexpected row %+v", rows[1])
	}
	if rows[2].CalibreTitle != "Dune, Deluxe" {
		t.Fatalf("unexpected title %q", rows[2].CalibreTitle)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := report.ReadMapping(filepath.Join(dir, "missing.csv")); !errors.Is(err, services.ErrFeedParse) {
		t.Fatalf("expected parse error for missing file, got %v", err)
	}
	noASIN := testsupport.WriteFile(t, filepath.Join(dir, "bad.csv"), "calibre_id\n7\n")
	if _, err := report.ReadMapping(noASIN); !errors.Is(err, services.ErrFeedParse) {
		t.Fatalf("expected parse error for missing column, got %v", err)
	}
	badCandidates := testsupport.WriteFile(t, filepath.Join(dir, "ambiguous.csv"), "asin,top_score,candidates\nB1,90,seven:90:X\n")
	if _, err := report.ReadAmbiguous(badCandidates); !errors.Is(err, services.ErrFeedParse) {
		t.Fatalf("expected parse error for bad candidates, got %v", err)
	}
}

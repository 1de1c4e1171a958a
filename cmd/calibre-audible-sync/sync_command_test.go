package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

func TestSyncCommandAppliesAndReports(t *testing.T) {
	env := setupCLITestEnv(t)
	reportDir := filepath.Join(env.baseDir, "out")

	out, _, err := runCLI(t, env, "sync", "--audible-csv", env.feedPath, "--report-dir", reportDir)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Ambiguous")
	requireContains(t, out, "changes applied")
	requireContains(t, out, "resolve-ambiguous list")

	hobbit, _ := env.store.Record(7)
	if hobbit.ASIN != "B001" {
		t.Fatalf("expected hobbit linked, got %+v", hobbit)
	}
	for _, id := range []int{8, 9} {
		if rec, _ := env.store.Record(id); rec.ASIN != "" {
			t.Fatalf("ambiguous candidate %d should be untouched, got %+v", id, rec)
		}
	}
	entries, err := report.ReadAmbiguous(filepath.Join(reportDir, report.AmbiguousFile))
	if err != nil {
		t.Fatalf("read ambiguous: %v", err)
	}
	if len(entries) != 1 || entries[0].ASIN != "B002" || len(entries[0].Candidates) != 2 {
		t.Fatalf("unexpected ambiguous entries %+v", entries)
	}
}

func TestSyncCommandDryRunJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "sync", "--audible-csv", env.feedPath, "--dry-run", "--json",
		"--report-dir", filepath.Join(env.baseDir, "dry"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	var summary syncOutput
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if !summary.DryRun || summary.Audiobooks != 3 || summary.Confident != 1 || summary.Ambiguous != 1 || summary.Unmatched != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Applied != 0 {
		t.Fatalf("dry run applied %d changes", summary.Applied)
	}
	if calls := env.store.Calls(); len(calls) != 0 {
		t.Fatalf("dry run called the store: %+v", calls)
	}
}

func TestSyncCommandWithoutPlaceholders(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "sync", "--audible-csv", env.feedPath, "--create-placeholders=false",
		"--report-dir", filepath.Join(env.baseDir, "out"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	for _, call := range env.store.Calls() {
		if call.Op == "insert" {
			t.Fatalf("unexpected insert %+v", call)
		}
	}
}

func TestSyncCommandThresholdOverrides(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "sync", "--audible-csv", env.feedPath, "--match-threshold", "60", "--review-threshold", "80")
	if got := services.ExitCode(err); got != services.ExitConfiguration {
		t.Fatalf("expected configuration exit code, got %d (%v)", got, err)
	}
}

func TestSyncCommandExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.store.SetColumns(calibre.ColumnASIN)

	_, _, err := runCLI(t, env, "sync", "--audible-csv", env.feedPath)
	if got := services.ExitCode(err); got != services.ExitSchema {
		t.Fatalf("expected schema exit code, got %d (%v)", got, err)
	}

	env = setupCLITestEnv(t)
	bad := filepath.Join(env.baseDir, "bad.csv")
	if err := os.WriteFile(bad, []byte("title\nDune\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err = runCLI(t, env, "sync", "--audible-csv", bad)
	if got := services.ExitCode(err); got != services.ExitFeedParse {
		t.Fatalf("expected feed exit code, got %d (%v)", got, err)
	}

	env = setupCLITestEnv(t)
	env.store.FailUpdate = 7
	out, _, err := runCLI(t, env, "sync", "--audible-csv", env.feedPath, "--report-dir", filepath.Join(env.baseDir, "out"))
	if got := services.ExitCode(err); got != services.ExitStore {
		t.Fatalf("expected store exit code, got %d (%v)", got, err)
	}
	requireContains(t, out, "not attempted")
}

func TestSyncCommandRequiresFeed(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "sync"); err == nil {
		t.Fatal("expected missing --audible-csv to fail")
	}
}

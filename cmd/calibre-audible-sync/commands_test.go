package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/ledger"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

func TestPrintColumns(t *testing.T) {
	env := setupCLITestEnv(t)
	env.store.SetColumns(calibre.ColumnASIN, calibre.ColumnOwned)

	out, _, err := runCLI(t, env, "print-columns")
	if err != nil {
		t.Fatalf("print-columns: %v", err)
	}
	requireContains(t, out, "#audible_asin")
	requireContains(t, out, "#format_status")
	requireContains(t, out, "Create the missing required columns")

	out, _, err = runCLI(t, env, "print-columns", "--json")
	if err != nil {
		t.Fatalf("print-columns --json: %v", err)
	}
	var rows []columnRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != len(calibre.Columns) || !rows[1].Present || rows[2].Present {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Calibre library")
	requireContains(t, out, "[OK] all columns present")

	env.store.SetColumns(calibre.ColumnASIN)
	out, _, err = runCLI(t, env, "check")
	if got := services.ExitCode(err); got != services.ExitSchema {
		t.Fatalf("expected schema exit code, got %d (%v)", got, err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestHistoryAfterSync(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "sync", "--audible-csv", env.feedPath, "--report-dir", filepath.Join(env.baseDir, "out")); err != nil {
		t.Fatalf("sync: %v", err)
	}

	out, _, err := runCLI(t, env, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []ledger.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Command != "sync" || runs[0].Audiobooks != 3 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	out, _, err = runCLI(t, env, "history", runs[0].ID)
	if err != nil {
		t.Fatalf("history run: %v", err)
	}
	requireContains(t, out, "B002")
	requireContains(t, out, "needs review")

	out, _, err = runCLI(t, env, "history", "--asin", "b001")
	if err != nil {
		t.Fatalf("history asin: %v", err)
	}
	requireContains(t, out, runs[0].ID)

	_, _, err = runCLI(t, env, "history", "missing-run")
	if got := services.ExitCode(err); got != services.ExitResolution {
		t.Fatalf("expected not-found exit code, got %d (%v)", got, err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Calibre.Library)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
}

func TestConfigLoadFailureExitCode(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("unknown_key = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, env, "check")
	if got := services.ExitCode(err); got != services.ExitConfiguration {
		t.Fatalf("expected configuration exit code, got %d (%v)", got, err)
	}
}

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Library", statusError, "missing", false)
	if got != "  Library:         [ERROR] missing" {
		t.Fatalf("unexpected line %q", got)
	}
	if shouldColorize(&strings.Builder{}) {
		t.Fatal("expected non-file writer to disable color")
	}
}

package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
	"github.com/bergsfam/calibre-audible-integration/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStateDirCreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "nested")
	if result := CheckStateDir(dir); !result.Passed {
		t.Fatalf("expected state dir to be created, got %s", result.Detail)
	}
}

func TestCheckSchema(t *testing.T) {
	store := testsupport.NewMemoryStore()
	if result := CheckSchema(context.Background(), store); !result.Passed || result.Detail != "all columns present" {
		t.Fatalf("unexpected result %+v", result)
	}

	store.SetColumns(calibre.ColumnOwned, calibre.ColumnASIN, calibre.ColumnNarrators, calibre.ColumnMinutes,
		calibre.ColumnPurchaseDate, calibre.ColumnMatchScore, calibre.ColumnFormatStatus)
	result := CheckSchema(context.Background(), store)
	if !result.Passed || !strings.Contains(result.Detail, calibre.ColumnSeries) {
		t.Fatalf("expected optional columns listed, got %+v", result)
	}

	store.SetColumns(calibre.ColumnASIN)
	result = CheckSchema(context.Background(), store)
	if result.Passed || !strings.Contains(result.Detail, calibre.ColumnOwned) {
		t.Fatalf("expected failure naming missing columns, got %+v", result)
	}
	if err := SchemaError(result); !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch error, got %v", err)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	results := RunAll(context.Background(), cfg, testsupport.NewMemoryStore())
	if err := Failures(results); err != nil {
		t.Fatalf("expected all checks to pass: %v", err)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"Calibre library", "State directory", "calibredb", "Custom columns", "Ledger"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q check, got %s", want, joined)
		}
	}
}

func TestRunAllSkipsSchemaWithoutBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	cfg.Calibre.Binary = "clearly-not-present-calibredb"
	results := RunAll(context.Background(), cfg, testsupport.NewMemoryStore())
	if Failures(results) == nil {
		t.Fatal("expected missing binary to fail")
	}
	for _, r := range results {
		if r.Name == "Custom columns" || r.Name == "Ledger" {
			t.Fatalf("unexpected check %s", r.Name)
		}
	}
}

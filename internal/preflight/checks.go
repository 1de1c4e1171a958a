package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/config"
	"github.com/bergsfam/calibre-audible-integration/internal/deps"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStateDir verifies the state directory, creating it when missing.
func CheckStateDir(path string) Result {
	const name = "State directory"
	if strings.TrimSpace(path) != "" {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
		}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckSchema verifies that the library defines every required custom column.
// Missing optional columns are listed but do not fail the check.
func CheckSchema(ctx context.Context, store calibre.Store) Result {
	const name = "Custom columns"
	columns, err := store.Columns(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unable to read columns: %v", err)}
	}
	if err := calibre.CheckSchema(columns); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	var optional []string
	for _, spec := range calibre.Columns {
		if !spec.Required && !columns.Has(spec.Label) {
			optional = append(optional, spec.Label)
		}
	}
	if len(optional) > 0 {
		return Result{Name: name, Passed: true, Detail: "required columns present; optional missing: " + strings.Join(optional, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: "all columns present"}
}

// CheckLedger verifies that the ledger directory is writable.
func CheckLedger(path string) Result {
	const name = "Ledger"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", dir, err)}
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates the external binaries required by cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.CalibreRequirements(cfg.Calibre.Binary))
}

// SchemaError converts a failed schema result to the schema mismatch error
// used for exit codes.
func SchemaError(result Result) error {
	if result.Passed {
		return nil
	}
	return services.Wrap(services.ErrSchemaMismatch, "preflight", result.Name, result.Detail, errors.New("schema check failed"))
}

package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to cfg. The schema check runs only
// when a store is supplied and the calibredb binary was found.
func RunAll(ctx context.Context, cfg *config.Config, store calibre.Store) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Calibre library", cfg.Calibre.Library))
	results = append(results, CheckStateDir(cfg.Paths.StateDir))

	binaryOK := true
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Path
		}
		if !result.Passed {
			binaryOK = false
		}
		results = append(results, result)
	}

	if store != nil && binaryOK {
		results = append(results, CheckSchema(ctx, store))
	}
	if cfg.Ledger.Enabled {
		results = append(results, CheckLedger(cfg.Ledger.Path))
	}
	return results
}

// Failures returns an error describing every failed result, or nil.
func Failures(results []Result) error {
	var failures []string
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("preflight checks failed: %s", strings.Join(failures, "; "))
}

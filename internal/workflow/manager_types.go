package workflow

import (
	"time"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/reconcile"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
)

// Stage names used in logs and error messages.
const (
	stageLoad   = "load"
	stageSchema = "schema"
	stageList   = "list"
	stageMatch  = "match"
	stagePlan   = "plan"
	stageApply  = "apply"
	stageReport = "report"
	stageLedger = "ledger"
)

// CommandSync is the ledger command name for reconciliation runs.
const CommandSync = "sync"

// Request describes one sync invocation. Settings not carried here come from
// the manager's config.
type Request struct {
	FeedPath string
	// ReportDir overrides the timestamped directory under sync.report_root.
	ReportDir string
}

// Result is everything a sync run produced. It is returned alongside apply
// errors so callers can still show the partial outcome.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Feed       *audible.Feed
	Plan       *reconcile.Plan
	Counts     reconcile.Counts
	Applied    reconcile.ApplySummary
	Report     report.Paths
}

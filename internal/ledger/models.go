package ledger

import "time"

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one invocation of sync or a resolution command.
type Run struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	FeedPath   string    `json:"feed_path,omitempty"`
	Library    string    `json:"library,omitempty"`
	ReportDir  string    `json:"report_dir,omitempty"`
	DryRun     bool      `json:"dry_run"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Audiobooks int       `json:"audiobooks"`
	Confident  int       `json:"confident"`
	Ambiguous  int       `json:"ambiguous"`
	Unmatched  int       `json:"unmatched"`
	Rejected   int       `json:"rejected"`
	Applied    int       `json:"applied"`
	Failed     int       `json:"failed"`
}

// Action is one recorded decision within a run.
type Action struct {
	RunID     string `json:"run_id"`
	Seq       int    `json:"seq"`
	ASIN      string `json:"asin"`
	LibraryID int    `json:"library_id"`
	Kind      string `json:"kind"`
	Method    string `json:"method,omitempty"`
	Score     *int   `json:"score,omitempty"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/cliutil"
	"github.com/bergsfam/calibre-audible-integration/internal/config"
	"github.com/bergsfam/calibre-audible-integration/internal/ledger"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
	"github.com/bergsfam/calibre-audible-integration/internal/resolution"
	"github.com/bergsfam/calibre-audible-integration/internal/runlock"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
	"github.com/bergsfam/calibre-audible-integration/internal/workflow"
)

// sourceFlags are shared by resolve and batch-resolve.
type sourceFlags struct {
	feedPath      string
	ambiguousPath string
	dryRun        bool
	jsonOutput    bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.feedPath, "audible-csv", "", "Audible library export used by the sync run")
	cmd.Flags().StringVar(&f.ambiguousPath, "ambiguous-csv", "", "Restrict decisions to ASINs listed in this ambiguous.csv")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", true, "Validate decisions without changing the library (pass --dry-run=false to apply)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output results as JSON")
	_ = cmd.MarkFlagRequired("audible-csv")
}

// pendingEntry is either a parsed entry or a row already rejected while
// parsing.
type pendingEntry struct {
	entry    resolution.Entry
	rejected *resolution.Result
}

type resultRow struct {
	Line      int    `json:"line,omitempty"`
	ASIN      string `json:"asin"`
	Target    string `json:"target"`
	State     string `json:"state"`
	LibraryID int    `json:"library_id,omitempty"`
	Action    string `json:"action,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// runResolutions applies entries in order and reports them. The returned
// error is a store failure if one occurred, else the rejection summary.
func runResolutions(cmd *cobra.Command, ctx *commandContext, command string, flags sourceFlags, pending []pendingEntry) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd, cfg)
	if err != nil {
		return err
	}

	feedPath, err := config.ExpandPath(strings.TrimSpace(flags.feedPath))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, command, "audible-csv", "", err)
	}
	feed, err := audible.LoadFile(feedPath)
	if err != nil {
		return err
	}
	opts := []resolution.Option{
		resolution.WithPlaceholderTags(cfg.Sync.PlaceholderTags),
		resolution.WithDryRun(flags.dryRun),
		resolution.WithLogger(logger),
	}
	if path := strings.TrimSpace(flags.ambiguousPath); path != "" {
		entries, err := report.ReadAmbiguous(path)
		if err != nil {
			return err
		}
		opts = append(opts, resolution.WithAmbiguous(entries))
	}

	store, err := ctx.newStore(cfg, logger)
	if err != nil {
		return err
	}
	columns, err := store.Columns(cmd.Context())
	if err != nil {
		return err
	}
	if err := calibre.CheckSchema(columns); err != nil {
		return err
	}

	if !flags.dryRun {
		lock, err := runlock.Acquire(cfg.LockPath())
		if err != nil {
			return services.Wrap(services.ErrConfiguration, command, "lock", "another mutating run holds the lock", err)
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release run lock failed", logging.Error(err))
			}
		}()
	}

	run := ledger.Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: time.Now(),
		FeedPath:  feedPath,
		Library:   cfg.Calibre.Library,
		DryRun:    flags.dryRun,
		Status:    ledger.StatusCompleted,
	}
	runCtx := services.WithRunID(cmd.Context(), run.ID)
	applier := resolution.NewApplier(store, feed, opts...)

	results := make([]resolution.Result, 0, len(pending))
	var storeErr error
	for _, item := range pending {
		if item.rejected != nil {
			results = append(results, *item.rejected)
			continue
		}
		result, err := applier.Resolve(runCtx, item.entry)
		results = append(results, result)
		if err != nil {
			storeErr = err
			break
		}
	}

	rejectErr := resolution.RejectionError(results)
	runErr := storeErr
	if runErr == nil {
		runErr = rejectErr
	}
	recordResolutionRun(runCtx, cfg, logger, run, results, runErr)

	if flags.jsonOutput {
		if err := cliutil.WriteJSON(cmd.OutOrStdout(), resultRows(results)); err != nil {
			return err
		}
	} else {
		printResults(cmd, results, len(pending), flags.dryRun)
	}
	return runErr
}

func recordResolutionRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, run ledger.Run, results []resolution.Result, runErr error) {
	store, err := ledger.OpenFromConfig(cfg)
	if err == nil && store == nil {
		return
	}
	if err == nil {
		defer store.Close()
		run.FinishedAt = time.Now()
		for _, result := range results {
			switch result.State {
			case resolution.StateApplied:
				run.Applied++
			case resolution.StateRejected:
				run.Rejected++
			}
		}
		if runErr != nil && !errors.Is(runErr, services.ErrAmbiguousResolution) {
			run.Status = ledger.StatusFailed
			run.Error = runErr.Error()
		}
		err = store.Record(ctx, run, workflow.ResolutionActions(results))
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "run history not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history will not list these decisions"),
		)
	}
}

func resultRows(results []resolution.Result) []resultRow {
	rows := make([]resultRow, 0, len(results))
	for _, result := range results {
		row := resultRow{
			Line:      result.Entry.Line,
			ASIN:      result.Entry.ASIN,
			Target:    result.Entry.Target(),
			State:     string(result.State),
			LibraryID: result.LibraryID,
			DryRun:    result.DryRun,
			Detail:    result.Detail,
		}
		if result.Action != nil {
			row.Action = result.Action.Kind.String()
		}
		rows = append(rows, row)
	}
	return rows
}

func printResults(cmd *cobra.Command, results []resolution.Result, requested int, dryRun bool) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(results))
	counts := map[resolution.State]int{}
	for _, row := range resultRows(results) {
		counts[resolution.State(row.State)]++
		line := ""
		if row.Line > 0 {
			line = fmt.Sprint(row.Line)
		}
		book := ""
		if row.LibraryID > 0 {
			book = fmt.Sprint(row.LibraryID)
		}
		state := row.State
		if row.DryRun {
			state += " (dry run)"
		}
		rows = append(rows, []string{line, row.ASIN, row.Target, state, book, row.Detail})
	}
	fmt.Fprintln(out, cliutil.Table([]cliutil.Column{
		cliutil.Right("Line"), cliutil.Left("ASIN"), cliutil.Left("Decision"),
		cliutil.Left("State"), cliutil.Right("Book"), cliutil.Left("Detail"),
	}, rows))
	fmt.Fprintf(out, "%d applied, %d skipped, %d rejected", counts[resolution.StateApplied], counts[resolution.StateSkipped], counts[resolution.StateRejected])
	if missed := requested - len(results); missed > 0 {
		fmt.Fprintf(out, ", %d not attempted", missed)
	}
	fmt.Fprintln(out)
	if dryRun {
		fmt.Fprintln(out, "dry run: library unchanged, rerun with --dry-run=false to apply")
	}
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/cliutil"
	"github.com/bergsfam/calibre-audible-integration/internal/config"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/preflight"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
	"github.com/bergsfam/calibre-audible-integration/internal/workflow"
)

type syncFlags struct {
	feedPath           string
	library            string
	createPlaceholders bool
	dryRun             bool
	matchThreshold     int
	reviewThreshold    int
	reportDir          string
	jsonOutput         bool
}

type syncOutput struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	DryRun     bool           `json:"dry_run"`
	ReportDir  string         `json:"report_dir,omitempty"`
	Audiobooks int            `json:"audiobooks"`
	Confident  int            `json:"confident"`
	Linked     int            `json:"already_linked"`
	Ambiguous  int            `json:"ambiguous"`
	Unmatched  int            `json:"unmatched"`
	Updates    int            `json:"updates"`
	Inserts    int            `json:"placeholders"`
	Sweeps     int            `json:"format_sweeps"`
	Applied    int            `json:"applied"`
	Failed     int            `json:"failed"`
	Pending    int            `json:"pending"`
	Warnings   []string       `json:"feed_warnings,omitempty"`
	Thresholds map[string]int `json:"thresholds"`
	Error      string         `json:"error,omitempty"`
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Match the Audible export against the library and write annotations",
		Long: "Match every audiobook in the Audible export against the Calibre library.\n" +
			"Confident matches are annotated, unmatched audiobooks become placeholder\n" +
			"records, and ambiguous matches are written to ambiguous.csv for review.",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := applySyncFlags(cmd, *base, flags)
			if err != nil {
				return err
			}
			feedPath, err := config.ExpandPath(strings.TrimSpace(flags.feedPath))
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "sync", "audible-csv", "", err)
			}

			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, nil)
			if err := preflight.Failures(results); err != nil {
				return services.Wrap(services.ErrConfiguration, "sync", "preflight", "", err)
			}

			store, err := ctx.store(cfg, logger)
			if err != nil {
				return err
			}
			history, err := ctx.openLedger(cfg)
			if err != nil {
				logging.WarnWithContext(logger, "run history unavailable", "ledger_open_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "this run will not appear in history"),
				)
			}
			if history != nil {
				defer history.Close()
			}

			manager, err := workflow.NewManager(cfg, store, workflow.WithLedger(history), workflow.WithLogger(logger))
			if err != nil {
				return services.Wrap(services.ErrValidation, "sync", "thresholds", "", err)
			}

			result, runErr := manager.Run(cmd.Context(), workflow.Request{
				FeedPath:  feedPath,
				ReportDir: flags.reportDir,
			})
			if result == nil {
				return runErr
			}
			if flags.jsonOutput {
				if err := cliutil.WriteJSON(cmd.OutOrStdout(), buildSyncOutput(result, manager, runErr)); err != nil {
					return err
				}
				return runErr
			}
			printSyncResult(cmd, result, manager, runErr)
			return runErr
		},
	}

	cmd.Flags().StringVar(&flags.feedPath, "audible-csv", "", "Audible library export (audible-cli library export)")
	cmd.Flags().StringVar(&flags.library, "calibre-library", "", "Calibre library directory (overrides calibre.library)")
	cmd.Flags().BoolVar(&flags.createPlaceholders, "create-placeholders", true, "Create placeholder records for unmatched audiobooks")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Plan and report without changing the library")
	cmd.Flags().IntVar(&flags.matchThreshold, "match-threshold", 0, "Minimum score for a confident match (overrides matching.match_threshold)")
	cmd.Flags().IntVar(&flags.reviewThreshold, "review-threshold", 0, "Minimum score for a review candidate (overrides matching.review_threshold)")
	cmd.Flags().StringVar(&flags.reportDir, "report-dir", "", "Directory for report files (default reports_YYYYMMDD_HHMMSS under sync.report_root)")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Output the run summary as JSON")
	_ = cmd.MarkFlagRequired("audible-csv")

	return cmd
}

// applySyncFlags overlays explicitly set flags onto a copy of the config.
func applySyncFlags(cmd *cobra.Command, cfg config.Config, flags syncFlags) (*config.Config, error) {
	changed := cmd.Flags().Changed
	if changed("calibre-library") {
		library, err := config.ExpandPath(strings.TrimSpace(flags.library))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "sync", "calibre-library", "", err)
		}
		cfg.Calibre.Library = library
	}
	if changed("create-placeholders") {
		cfg.Sync.CreatePlaceholders = flags.createPlaceholders
	}
	if changed("dry-run") {
		cfg.Sync.DryRun = flags.dryRun
	}
	if changed("match-threshold") {
		cfg.Matching.MatchThreshold = flags.matchThreshold
	}
	if changed("review-threshold") {
		cfg.Matching.ReviewThreshold = flags.reviewThreshold
	}
	if err := config.ValidateThresholds(cfg.Matching.MatchThreshold, cfg.Matching.ReviewThreshold, cfg.Matching.TitleWeight); err != nil {
		return nil, services.Wrap(services.ErrValidation, "sync", "thresholds", "", err)
	}
	return &cfg, nil
}

func buildSyncOutput(result *workflow.Result, manager *workflow.Manager, runErr error) syncOutput {
	thresholds := manager.Thresholds()
	out := syncOutput{
		RunID:      result.RunID,
		StartedAt:  result.StartedAt,
		DryRun:     result.DryRun,
		ReportDir:  result.Report.Dir,
		Audiobooks: result.Counts.Audiobooks,
		Confident:  result.Counts.Confident,
		Linked:     result.Counts.Linked,
		Ambiguous:  result.Counts.Ambiguous,
		Unmatched:  result.Counts.Unmatched,
		Updates:    result.Counts.Updates,
		Inserts:    result.Counts.Inserts,
		Sweeps:     result.Counts.Sweeps,
		Applied:    result.Applied.Applied,
		Failed:     result.Applied.Failed,
		Pending:    result.Applied.Pending,
		Thresholds: map[string]int{"match": thresholds.Match, "review": thresholds.Review},
	}
	if result.Feed != nil {
		out.Warnings = result.Feed.Warnings
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return out
}

func printSyncResult(cmd *cobra.Command, result *workflow.Result, manager *workflow.Manager, runErr error) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	counts := result.Counts

	rows := [][]string{
		{"Audiobooks", fmt.Sprint(counts.Audiobooks)},
		{"Confident", fmt.Sprint(counts.Confident)},
		{"  already linked", fmt.Sprint(counts.Linked)},
		{"Ambiguous", fmt.Sprint(counts.Ambiguous)},
		{"Unmatched", fmt.Sprint(counts.Unmatched)},
		{"Updates", fmt.Sprint(counts.Updates)},
		{"Placeholders", fmt.Sprint(counts.Inserts)},
		{"Format sweeps", fmt.Sprint(counts.Sweeps)},
	}
	fmt.Fprintln(out, cliutil.Table([]cliutil.Column{cliutil.Left("Outcome"), cliutil.Right("Count")}, rows))

	thresholds := manager.Thresholds()
	fmt.Fprintln(out, renderStatusLine("Run", statusInfo, result.RunID, colorize))
	fmt.Fprintln(out, renderStatusLine("Thresholds", statusInfo, fmt.Sprintf("match %d, review %d", thresholds.Match, thresholds.Review), colorize))
	switch {
	case runErr != nil:
		fmt.Fprintln(out, renderStatusLine("Library", statusError,
			fmt.Sprintf("%d applied, %d failed, %d not attempted", result.Applied.Applied, result.Applied.Failed, result.Applied.Pending), colorize))
	case result.DryRun:
		fmt.Fprintln(out, renderStatusLine("Library", statusWarn,
			fmt.Sprintf("dry run: %d changes planned, none applied", result.Applied.DryRun), colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Library", statusOK, fmt.Sprintf("%d changes applied", result.Applied.Applied), colorize))
	}
	if result.Feed != nil && len(result.Feed.Warnings) > 0 {
		fmt.Fprintln(out, renderStatusLine("Feed", statusWarn, fmt.Sprintf("%d row warnings (see log)", len(result.Feed.Warnings)), colorize))
	}
	if result.Report.Dir != "" {
		fmt.Fprintln(out, renderStatusLine("Reports", statusInfo, result.Report.Dir, colorize))
		if counts.Ambiguous > 0 {
			fmt.Fprintf(out, "\nReview %s with resolve-ambiguous list --ambiguous-csv %s\n", report.AmbiguousFile, result.Report.Ambiguous)
			if result.Report.Feed != "" {
				fmt.Fprintf(out, "Resolve against this run's export with --audible-csv %s\n", result.Report.Feed)
			}
		}
	}
	if errors.Is(runErr, services.ErrStoreAccess) {
		fmt.Fprintln(out, "Re-run sync after fixing the library; completed changes are detected as already linked.")
	}
}

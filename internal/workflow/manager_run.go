package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/fileutil"
	"github.com/bergsfam/calibre-audible-integration/internal/identification"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/reconcile"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
	"github.com/bergsfam/calibre-audible-integration/internal/runlock"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// Run executes one reconciliation pass. When apply fails the returned Result
// is still populated and the report and ledger reflect the partial run.
func (m *Manager) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.FeedPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sync", "feed", "audible csv path is required", nil)
	}

	result := &Result{
		RunID:     m.newID(),
		StartedAt: m.now(),
		DryRun:    m.cfg.Sync.DryRun,
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("sync started",
		logging.String(logging.FieldEventType, "sync_start"),
		logging.String("feed", req.FeedPath),
		logging.String("library", m.cfg.Calibre.Library),
		logging.Bool("dry_run", result.DryRun),
		logging.Bool("create_placeholders", m.cfg.Sync.CreatePlaceholders),
	)

	if !result.DryRun {
		lock, err := runlock.Acquire(m.cfg.LockPath())
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "sync", "lock", "another mutating run holds the lock", err)
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release run lock failed", logging.Error(err))
			}
		}()
	}

	library, err := m.prepare(ctx, req, result)
	if err != nil {
		m.finish(ctx, req, result, err)
		return nil, err
	}

	var outcomes []identification.Outcome
	err = m.runStage(ctx, stageMatch, func(stageCtx context.Context) error {
		if err := stageCtx.Err(); err != nil {
			return err
		}
		outcomes = m.matcher.MatchAll(result.Feed.Records, library)
		return nil
	})
	if err != nil {
		m.finish(ctx, req, result, err)
		return nil, err
	}

	err = m.runStage(ctx, stagePlan, func(stageCtx context.Context) error {
		plan, err := reconcile.BuildPlan(result.Feed.Records, outcomes, library, reconcile.Options{
			CreatePlaceholders: m.cfg.Sync.CreatePlaceholders,
			MarkEbookOnly:      m.cfg.Sync.MarkEbookOnly,
			PlaceholderTags:    m.cfg.Sync.PlaceholderTags,
		})
		if err != nil {
			return err
		}
		result.Plan = plan
		result.Counts = plan.Counts()
		return nil
	})
	if err != nil {
		m.finish(ctx, req, result, err)
		return nil, err
	}

	applyErr := m.runStage(ctx, stageApply, func(stageCtx context.Context) error {
		summary, err := reconcile.Apply(stageCtx, m.store, result.Plan.Actions, result.DryRun,
			logging.WithContext(stageCtx, m.logger))
		result.Applied = summary
		return err
	})

	reportErr := m.runStage(ctx, stageReport, func(stageCtx context.Context) error {
		paths, err := report.Write(m.reportDir(req, result), m.runInfo(req, result, applyErr), result.Plan, m.cfg.Report.CandidateLimit)
		result.Report = paths
		if err != nil {
			return err
		}
		snapshot := filepath.Join(paths.Dir, report.FeedSnapshotFile)
		if err := fileutil.CopyFileVerified(req.FeedPath, snapshot); err != nil {
			logging.WarnWithContext(logging.WithContext(stageCtx, m.logger), "audible export not copied to report", "feed_snapshot_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "pass the original export to resolve-ambiguous"),
			)
			return nil
		}
		result.Report.Feed = snapshot
		return nil
	})

	runErr := errors.Join(applyErr, reportErr)
	m.finish(ctx, req, result, runErr)
	if runErr != nil {
		return result, runErr
	}

	logger.Info("sync completed",
		logging.String(logging.FieldEventType, "sync_complete"),
		logging.Int("audiobooks", result.Counts.Audiobooks),
		logging.Int("confident", result.Counts.Confident),
		logging.Int("ambiguous", result.Counts.Ambiguous),
		logging.Int("unmatched", result.Counts.Unmatched),
		logging.Int("applied", result.Applied.Applied),
		logging.Int("dry_run_actions", result.Applied.DryRun),
		logging.String("report_dir", result.Report.Dir),
		logging.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

// prepare loads the feed, checks the schema, and lists the library. Nothing
// is mutated before it returns successfully.
func (m *Manager) prepare(ctx context.Context, req Request, result *Result) ([]calibre.Record, error) {
	err := m.runStage(ctx, stageLoad, func(stageCtx context.Context) error {
		feed, err := audible.LoadFile(req.FeedPath)
		if err != nil {
			return err
		}
		result.Feed = feed
		for _, warning := range feed.Warnings {
			logging.WarnWithContext(logging.WithContext(stageCtx, m.logger), "feed row warning", "feed_warning",
				logging.String("detail", warning),
				logging.String(logging.FieldImpact, "field left empty for this audiobook"),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = m.runStage(ctx, stageSchema, func(stageCtx context.Context) error {
		columns, err := m.store.Columns(stageCtx)
		if err != nil {
			return err
		}
		return calibre.CheckSchema(columns)
	})
	if err != nil {
		return nil, err
	}

	var library []calibre.Record
	err = m.runStage(ctx, stageList, func(stageCtx context.Context) error {
		records, err := m.store.List(stageCtx)
		library = records
		return err
	})
	return library, err
}

func (m *Manager) reportDir(req Request, result *Result) string {
	if dir := strings.TrimSpace(req.ReportDir); dir != "" {
		return dir
	}
	root := strings.TrimSpace(m.cfg.Sync.ReportRoot)
	if root == "" {
		root = "."
	}
	return filepath.Join(root, report.DirName(result.StartedAt))
}

func (m *Manager) runInfo(req Request, result *Result, applyErr error) report.RunInfo {
	return report.RunInfo{
		RunID:              result.RunID,
		StartedAt:          result.StartedAt,
		FeedPath:           req.FeedPath,
		Library:            m.cfg.Calibre.Library,
		DryRun:             result.DryRun,
		CreatePlaceholders: m.cfg.Sync.CreatePlaceholders,
		MarkEbookOnly:      m.cfg.Sync.MarkEbookOnly,
		Thresholds:         m.matcher.Thresholds(),
		Applied:            result.Applied,
		ApplyError:         applyErr,
	}
}

func (m *Manager) finish(ctx context.Context, req Request, result *Result, runErr error) {
	result.FinishedAt = m.now()
	if m.ledger == nil {
		return
	}
	if err := m.runStage(ctx, stageLedger, func(stageCtx context.Context) error {
		return m.record(stageCtx, req, result, runErr)
	}); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "run history not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("check %s is writable", m.ledger.Path())),
			logging.String(logging.FieldImpact, "history will not list this run"),
		)
	}
}

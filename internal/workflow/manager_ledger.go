package workflow

import (
	"context"

	"github.com/bergsfam/calibre-audible-integration/internal/identification"
	"github.com/bergsfam/calibre-audible-integration/internal/ledger"
	"github.com/bergsfam/calibre-audible-integration/internal/reconcile"
	"github.com/bergsfam/calibre-audible-integration/internal/resolution"
)

func (m *Manager) record(ctx context.Context, req Request, result *Result, runErr error) error {
	run := ledger.Run{
		ID:         result.RunID,
		Command:    CommandSync,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		FeedPath:   req.FeedPath,
		Library:    m.cfg.Calibre.Library,
		ReportDir:  result.Report.Dir,
		DryRun:     result.DryRun,
		Status:     ledger.StatusCompleted,
		Audiobooks: result.Counts.Audiobooks,
		Confident:  result.Counts.Confident,
		Ambiguous:  result.Counts.Ambiguous,
		Unmatched:  result.Counts.Unmatched,
		Applied:    result.Applied.Applied,
		Failed:     result.Applied.Failed,
	}
	if runErr != nil {
		run.Status = ledger.StatusFailed
		run.Error = runErr.Error()
	}
	return m.ledger.Record(ctx, run, PlanActions(result.Plan))
}

// PlanActions flattens a plan into ledger rows: one per audiobook in feed
// order, then one per format status sweep.
func PlanActions(plan *reconcile.Plan) []ledger.Action {
	if plan == nil {
		return nil
	}
	rows := make([]ledger.Action, 0, len(plan.Actions))
	for _, item := range plan.Items {
		row := ledger.Action{
			ASIN:      item.Outcome.ASIN,
			LibraryID: item.Outcome.LibraryID,
			Method:    item.Outcome.Method,
			State:     string(reconcile.StateNone),
			Kind:      reconcile.ActionNoOp.String(),
		}
		switch item.Outcome.Kind {
		case identification.Confident:
			row.Score = intPtr(item.Outcome.Score)
		default:
			row.Score = intPtr(item.Outcome.TopScore)
		}
		if action := item.Action; action != nil {
			row.Kind = action.Kind.String()
			row.State = string(action.State)
			row.Reason = action.Reason
			if action.LibraryID > 0 {
				row.LibraryID = action.LibraryID
			}
			if action.Err != nil {
				row.Error = action.Err.Error()
			}
		}
		rows = append(rows, row)
	}
	for _, action := range plan.Actions {
		if action.ASIN != "" {
			continue
		}
		row := ledger.Action{
			LibraryID: action.LibraryID,
			Kind:      action.Kind.String(),
			State:     string(action.State),
			Reason:    action.Reason,
		}
		if action.Err != nil {
			row.Error = action.Err.Error()
		}
		rows = append(rows, row)
	}
	for i := range rows {
		rows[i].Seq = i + 1
	}
	return rows
}

// ResolutionActions converts resolution results into ledger rows. Manual
// decisions carry no score.
func ResolutionActions(results []resolution.Result) []ledger.Action {
	rows := make([]ledger.Action, 0, len(results))
	for i, result := range results {
		row := ledger.Action{
			Seq:       i + 1,
			ASIN:      result.Entry.ASIN,
			LibraryID: result.LibraryID,
			Kind:      reconcile.ActionNoOp.String(),
			Method:    identification.MethodManual,
			State:     string(result.State),
			Reason:    result.Detail,
		}
		if result.Action != nil {
			row.Kind = result.Action.Kind.String()
		}
		if result.Err != nil {
			row.Error = result.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

func intPtr(v int) *int {
	return &v
}

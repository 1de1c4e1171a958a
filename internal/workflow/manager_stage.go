package workflow

import (
	"context"
	"errors"

	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// runStage runs fn with the stage recorded on the context and logs its
// start, duration, and failure.
func (m *Manager) runStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, stage)
	logger := logging.WithContext(stageCtx, m.logger)
	started := m.now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	err := fn(stageCtx)
	elapsed := m.now().Sub(started)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted", logging.Duration("duration", elapsed))
			return err
		}
		logging.ErrorWithContext(logger, "stage failed", "stage_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, stageHint(stage)),
			logging.Duration("duration", elapsed),
		)
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", elapsed),
	)
	return nil
}

func stageHint(stage string) string {
	switch stage {
	case stageLoad:
		return "check the Audible export path and its header row"
	case stageSchema:
		return "create the missing custom columns in Calibre"
	case stageList, stageApply:
		return "check calibredb and that Calibre is not holding the library open"
	case stagePlan:
		return "the library changed while matching; rerun sync"
	case stageReport:
		return "check the report directory is writable"
	case stageLedger:
		return "check the ledger path in the state directory"
	default:
		return ""
	}
}

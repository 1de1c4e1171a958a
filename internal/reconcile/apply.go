package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// ApplySummary counts what Apply did.
type ApplySummary struct {
	Applied int
	DryRun  int
	Failed  int
	Pending int
}

// Apply sends mutating actions to the store in order. In dry-run mode no store
// call is made and actions are marked dry_run. The first store failure stops
// the run; actions already applied stay applied and later ones stay pending.
func Apply(ctx context.Context, store calibre.Store, actions []*Action, dryRun bool, logger *slog.Logger) (ApplySummary, error) {
	logger = logging.NewComponentLogger(logger, "apply")
	var summary ApplySummary
	for idx, action := range actions {
		if !action.Mutating() {
			continue
		}
		if dryRun {
			action.State = StateDryRun
			summary.DryRun++
			continue
		}
		if store == nil {
			return summary, services.Wrap(services.ErrConfiguration, "apply", "store", "no library store configured", nil)
		}
		if err := ctx.Err(); err != nil {
			summary.Pending = countPending(actions[idx:])
			return summary, err
		}
		if err := applyOne(ctx, store, action); err != nil {
			action.State = StateFailed
			action.Err = err
			summary.Failed++
			summary.Pending = countPending(actions[idx+1:])
			logging.ErrorWithContext(logger, "library update failed", "apply_failed",
				logging.String(logging.FieldASIN, action.ASIN),
				logging.Int(logging.FieldLibraryID, action.LibraryID),
				logging.String("action", action.Kind.String()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check calibredb output; earlier changes were kept"))
			if !errors.Is(err, services.ErrStoreAccess) {
				err = services.Wrap(services.ErrStoreAccess, "apply", action.Kind.String(), action.ASIN, err)
			}
			return summary, err
		}
		action.State = StateApplied
		summary.Applied++
		logger.Info("library updated",
			logging.String(logging.FieldASIN, action.ASIN),
			logging.Int(logging.FieldLibraryID, action.LibraryID),
			logging.String("action", action.Kind.String()),
			logging.String("reason", action.Reason))
	}
	return summary, nil
}

func applyOne(ctx context.Context, store calibre.Store, action *Action) error {
	switch action.Kind {
	case ActionUpdate:
		return store.Update(ctx, action.LibraryID, action.Patch)
	case ActionInsert:
		if action.Placeholder == nil {
			return errors.New("insert action without placeholder")
		}
		id, err := store.Insert(ctx, *action.Placeholder)
		if id > 0 {
			action.LibraryID = id
		}
		return err
	default:
		return nil
	}
}

func countPending(actions []*Action) int {
	n := 0
	for _, action := range actions {
		if action.Mutating() && action.State == StatePending {
			n++
		}
	}
	return n
}

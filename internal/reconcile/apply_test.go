package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/reconcile"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
	"github.com/bergsfam/calibre-audible-integration/internal/testsupport"
)

func statusPatch(status calibre.FormatStatus) calibre.Patch {
	return calibre.Patch{FormatStatus: &status}
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	store := testsupport.NewMemoryStore(calibre.Record{ID: 1, Title: "Dune"})
	actions := []*reconcile.Action{
		reconcile.NewUpdate("", 1, statusPatch(calibre.FormatUnknown), reconcile.ReasonEbookOnly),
		reconcile.NewInsert("B9", calibre.Placeholder{Title: "X"}, reconcile.ReasonPlaceholder),
		reconcile.NewNoOp("B8", 0, reconcile.ReasonNeedsReview),
	}
	summary, err := reconcile.Apply(context.Background(), store, actions, true, logging.NewNop())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if summary.DryRun != 2 || summary.Applied != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(store.Calls()) != 0 {
		t.Fatalf("dry run must not call the store, got %+v", store.Calls())
	}
	if actions[0].State != reconcile.StateDryRun || actions[2].State != reconcile.StateNone {
		t.Fatalf("unexpected states %q %q", actions[0].State, actions[2].State)
	}

	// A nil store is fine in dry-run mode.
	if _, err := reconcile.Apply(context.Background(), nil, actions, true, nil); err != nil {
		t.Fatalf("dry run without store: %v", err)
	}
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	store := testsupport.NewMemoryStore(
		calibre.Record{ID: 1, Title: "One"},
		calibre.Record{ID: 2, Title: "Two"},
		calibre.Record{ID: 3, Title: "Three"},
	)
	store.FailUpdate = 2
	actions := []*reconcile.Action{
		reconcile.NewUpdate("", 1, statusPatch(calibre.FormatUnknown), reconcile.ReasonEbookOnly),
		reconcile.NewUpdate("", 2, statusPatch(calibre.FormatUnknown), reconcile.ReasonEbookOnly),
		reconcile.NewUpdate("", 3, statusPatch(calibre.FormatUnknown), reconcile.ReasonEbookOnly),
	}
	summary, err := reconcile.Apply(context.Background(), store, actions, false, logging.NewNop())
	if !errors.Is(err, services.ErrStoreAccess) {
		t.Fatalf("expected store access error, got %v", err)
	}
	if summary.Applied != 1 || summary.Failed != 1 || summary.Pending != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if actions[0].State != reconcile.StateApplied || actions[1].State != reconcile.StateFailed || actions[2].State != reconcile.StatePending {
		t.Fatalf("unexpected states %q %q %q", actions[0].State, actions[1].State, actions[2].State)
	}
	if rec, _ := store.Record(1); rec.FormatStatus != calibre.FormatUnknown {
		t.Fatal("expected the first update to be kept")
	}
	if rec, _ := store.Record(3); rec.FormatStatus != "" {
		t.Fatal("expected the third update not to run")
	}
}

func TestApplyInsertRecordsID(t *testing.T) {
	store := testsupport.NewMemoryStore(calibre.Record{ID: 40, Title: "Existing"})
	asin := "B777"
	action := reconcile.NewInsert(asin, calibre.Placeholder{Title: "New", Authors: []string{"A"}, Patch: calibre.Patch{ASIN: &asin}}, reconcile.ReasonPlaceholder)
	if _, err := reconcile.Apply(context.Background(), store, []*reconcile.Action{action}, false, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if action.LibraryID != 41 || action.State != reconcile.StateApplied {
		t.Fatalf("unexpected action after insert %+v", action)
	}
	rec, ok := store.Record(41)
	if !ok || rec.ASIN != "B777" {
		t.Fatalf("unexpected inserted record %+v", rec)
	}
}

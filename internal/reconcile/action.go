package reconcile

import (
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
)

// ActionKind identifies what an action does to the library.
type ActionKind int

const (
	ActionNoOp ActionKind = iota
	ActionUpdate
	ActionInsert
)

func (k ActionKind) String() string {
	switch k {
	case ActionUpdate:
		return "update"
	case ActionInsert:
		return "insert"
	default:
		return "none"
	}
}

// ApplyState tracks an action through Apply.
type ApplyState string

const (
	StateNone    ApplyState = "none"
	StatePending ApplyState = "pending"
	StateApplied ApplyState = "applied"
	StateDryRun  ApplyState = "dry_run"
	StateFailed  ApplyState = "failed"
)

// Action is one planned library change. Insert actions receive their
// LibraryID once applied.
type Action struct {
	Kind        ActionKind
	ASIN        string
	LibraryID   int
	Patch       calibre.Patch
	Placeholder *calibre.Placeholder
	Reason      string
	State       ApplyState
	Err         error
}

// NewUpdate returns a pending update action.
func NewUpdate(asin string, libraryID int, patch calibre.Patch, reason string) *Action {
	return &Action{Kind: ActionUpdate, ASIN: asin, LibraryID: libraryID, Patch: patch, Reason: reason, State: StatePending}
}

// NewInsert returns a pending placeholder insert.
func NewInsert(asin string, placeholder calibre.Placeholder, reason string) *Action {
	return &Action{Kind: ActionInsert, ASIN: asin, Placeholder: &placeholder, Reason: reason, State: StatePending}
}

// NewNoOp records a decision to leave the library alone.
func NewNoOp(asin string, libraryID int, reason string) *Action {
	return &Action{Kind: ActionNoOp, ASIN: asin, LibraryID: libraryID, Reason: reason, State: StateNone}
}

// Mutating reports whether the action changes the library.
func (a *Action) Mutating() bool {
	return a != nil && a.Kind != ActionNoOp
}

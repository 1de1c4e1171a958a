package reconcile

import (
	"fmt"
	"sort"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/identification"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// No-op reasons surfaced in reports.
const (
	ReasonAlreadyLinked        = "already linked"
	ReasonNeedsReview          = "needs review"
	ReasonPlaceholdersDisabled = "placeholders disabled"
	ReasonASINPresent          = "asin already in library"
	ReasonMatched              = "matched"
	ReasonPlaceholder          = "audible only"
	ReasonEbookOnly            = "format status sweep"
	ReasonManual               = "manual resolution"
)

// Options controls planning.
type Options struct {
	CreatePlaceholders bool
	MarkEbookOnly      bool
	PlaceholderTags    []string
}

// Item pairs one audiobook with its outcome and the action planned for it.
type Item struct {
	Record  audible.Record
	Outcome identification.Outcome
	Library *calibre.Record
	Action  *Action
}

// Plan is the ordered result of planning. Actions holds every item action,
// in feed order, followed by sweep updates ordered by library id.
type Plan struct {
	Items   []Item
	Actions []*Action
}

// Counts summarises a plan for reports and the ledger.
type Counts struct {
	Audiobooks int
	Confident  int
	Linked     int
	Ambiguous  int
	Unmatched  int
	Updates    int
	Inserts    int
	Sweeps     int
}

// BuildPlan maps outcomes to actions. outcomes must be parallel to feed.
func BuildPlan(feed []audible.Record, outcomes []identification.Outcome, library []calibre.Record, opts Options) (*Plan, error) {
	if len(feed) != len(outcomes) {
		return nil, services.Wrap(services.ErrValidation, "plan", "outcomes",
			fmt.Sprintf("%d outcomes for %d audiobooks", len(outcomes), len(feed)), nil)
	}

	byID := make(map[int]*calibre.Record, len(library))
	onLibrary := make(map[string]struct{})
	for i := range library {
		rec := &library[i]
		byID[rec.ID] = rec
		if rec.Linked() {
			onLibrary[audible.NormalizeASIN(rec.ASIN)] = struct{}{}
		}
	}

	plan := &Plan{Items: make([]Item, 0, len(feed))}
	claimed := make(map[int]struct{})
	planned := make(map[string]struct{})

	for idx, rec := range feed {
		outcome := outcomes[idx]
		asin := audible.NormalizeASIN(rec.ASIN)
		item := Item{Record: rec, Outcome: outcome}

		switch outcome.Kind {
		case identification.Confident:
			lib, ok := byID[outcome.LibraryID]
			if !ok {
				return nil, services.Wrap(services.ErrNotFound, "plan", "library record",
					fmt.Sprintf("outcome for %s names unknown id %d", asin, outcome.LibraryID), nil)
			}
			item.Library = lib
			claimed[lib.ID] = struct{}{}
			if outcome.Method == identification.MethodASINLink {
				item.Action = NewNoOp(asin, lib.ID, ReasonAlreadyLinked)
				break
			}
			score := outcome.Score
			item.Action = NewUpdate(asin, lib.ID, LinkPatch(rec, *lib, &score), ReasonMatched)
		case identification.Ambiguous:
			item.Action = NewNoOp(asin, 0, ReasonNeedsReview)
		default:
			_, present := onLibrary[asin]
			_, already := planned[asin]
			switch {
			case present || already:
				item.Action = NewNoOp(asin, 0, ReasonASINPresent)
			case !opts.CreatePlaceholders:
				item.Action = NewNoOp(asin, 0, ReasonPlaceholdersDisabled)
			default:
				planned[asin] = struct{}{}
				item.Action = NewInsert(asin, PlaceholderFor(rec, opts.PlaceholderTags), ReasonPlaceholder)
			}
		}

		plan.Items = append(plan.Items, item)
		if item.Action.Mutating() {
			plan.Actions = append(plan.Actions, item.Action)
		}
	}

	if opts.MarkEbookOnly {
		plan.Actions = append(plan.Actions, sweep(library, claimed)...)
	}
	return plan, nil
}

// sweep brings unlinked, unclaimed records to the status their formats imply.
// Records already marked as holding audio are left alone.
func sweep(library []calibre.Record, claimed map[int]struct{}) []*Action {
	var actions []*Action
	ordered := append([]calibre.Record(nil), library...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for _, rec := range ordered {
		if rec.Linked() {
			continue
		}
		if _, ok := claimed[rec.ID]; ok {
			continue
		}
		if rec.FormatStatus == calibre.FormatAudibleOnly || rec.FormatStatus == calibre.FormatBoth {
			continue
		}
		want := calibre.DeriveFormatStatus(rec.HasEbook(), false)
		if rec.FormatStatus == want {
			continue
		}
		actions = append(actions, NewUpdate("", rec.ID, calibre.Patch{FormatStatus: &want}, ReasonEbookOnly))
	}
	return actions
}

// Counts tallies outcomes and mutating actions.
func (p *Plan) Counts() Counts {
	var c Counts
	if p == nil {
		return c
	}
	c.Audiobooks = len(p.Items)
	for _, item := range p.Items {
		switch item.Outcome.Kind {
		case identification.Confident:
			c.Confident++
			if item.Outcome.Method == identification.MethodASINLink {
				c.Linked++
			}
		case identification.Ambiguous:
			c.Ambiguous++
		default:
			c.Unmatched++
		}
	}
	for _, action := range p.Actions {
		switch {
		case action.Kind == ActionInsert:
			c.Inserts++
		case action.Kind == ActionUpdate && action.ASIN == "":
			c.Sweeps++
		case action.Kind == ActionUpdate:
			c.Updates++
		}
	}
	return c
}

// Mutations returns the number of actions that would change the library.
func (c Counts) Mutations() int {
	return c.Updates + c.Inserts + c.Sweeps
}

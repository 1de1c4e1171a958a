package resolution

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/identification"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/reconcile"
	"github.com/bergsfam/calibre-audible-integration/internal/report"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
	"github.com/bergsfam/calibre-audible-integration/internal/textutil"
)

// State is where an entry ended up.
type State string

const (
	StatePending  State = "pending"
	StateApplied  State = "applied"
	StateSkipped  State = "skipped"
	StateRejected State = "rejected"
)

// Result reports what happened to one entry. Err is set for rejections and
// wraps services.ErrAmbiguousResolution.
type Result struct {
	Entry     Entry
	State     State
	LibraryID int
	Action    *reconcile.Action
	DryRun    bool
	Detail    string
	Err       error
}

// Option configures an Applier.
type Option func(*Applier)

// WithAmbiguous restricts entries to ASINs listed in an ambiguous report.
func WithAmbiguous(entries []report.AmbiguousEntry) Option {
	return func(a *Applier) {
		a.ambiguous = make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			a.ambiguous[audible.NormalizeASIN(entry.ASIN)] = struct{}{}
		}
	}
}

// WithPlaceholderTags sets the tags applied to new placeholders.
func WithPlaceholderTags(tags []string) Option {
	return func(a *Applier) {
		a.tags = append([]string(nil), tags...)
	}
}

// WithDryRun records decisions without calling the store.
func WithDryRun(dryRun bool) Option {
	return func(a *Applier) {
		a.dryRun = dryRun
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Applier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Applier resolves entries against a library and an Audible export.
type Applier struct {
	store     calibre.Store
	feed      *audible.Feed
	ambiguous map[string]struct{}
	tags      []string
	dryRun    bool
	logger    *slog.Logger

	library []calibre.Record
	loaded  bool
}

// NewApplier returns an applier. The library is listed lazily on first use.
func NewApplier(store calibre.Store, feed *audible.Feed, opts ...Option) *Applier {
	a := &Applier{store: store, feed: feed, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "resolution")
	return a
}

// Resolve applies one entry. The returned error is reserved for store
// failures; rejections are reported in the Result.
func (a *Applier) Resolve(ctx context.Context, entry Entry) (Result, error) {
	if err := a.load(ctx); err != nil {
		return Result{Entry: entry, State: StatePending}, err
	}
	ctx = services.WithASIN(ctx, audible.NormalizeASIN(entry.ASIN))
	result := a.resolve(ctx, entry)
	if result.State != StatePending {
		a.log(ctx, result)
		return result, nil
	}

	summary, err := reconcile.Apply(ctx, a.store, []*reconcile.Action{result.Action}, a.dryRun, a.logger)
	if err != nil {
		return result, err
	}
	result.State = StateApplied
	result.DryRun = summary.DryRun > 0
	result.LibraryID = result.Action.LibraryID
	a.remember(result.Action)
	a.log(ctx, result)
	return result, nil
}

// ResolveBatch applies entries in order. Rejections do not stop the batch; a
// store failure does, and the results gathered so far are returned with it.
func (a *Applier) ResolveBatch(ctx context.Context, entries []Entry) ([]Result, error) {
	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		result, err := a.Resolve(ctx, entry)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Rejected returns the rejected results.
func Rejected(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if result.State == StateRejected {
			out = append(out, result)
		}
	}
	return out
}

// RejectionError summarises rejections as one error, or nil when there are none.
func RejectionError(results []Result) error {
	rejected := Rejected(results)
	if len(rejected) == 0 {
		return nil
	}
	asins := make([]string, 0, len(rejected))
	for _, result := range rejected {
		asins = append(asins, result.Entry.ASIN)
	}
	return services.Wrap(services.ErrAmbiguousResolution, "resolve", "batch",
		fmt.Sprintf("%d of %d entries rejected (%s)", len(rejected), len(results), strings.Join(asins, ", ")), nil)
}

func (a *Applier) resolve(ctx context.Context, entry Entry) Result {
	entry.ASIN = audible.NormalizeASIN(entry.ASIN)
	result := Result{Entry: entry, State: StatePending}
	reject := func(format string, args ...any) Result {
		result.State = StateRejected
		result.Detail = fmt.Sprintf(format, args...)
		result.Err = services.Wrap(services.ErrAmbiguousResolution, "resolve", entry.ASIN, lineDetail(entry, result.Detail), nil)
		return result
	}

	if err := entry.Validate(); err != nil {
		return reject("%v", err)
	}
	if a.ambiguous != nil {
		if _, ok := a.ambiguous[entry.ASIN]; !ok {
			return reject("asin not listed in the ambiguous report")
		}
	}
	rec, ok := a.feed.Lookup(entry.ASIN)
	if !ok {
		return reject("asin not found in the Audible export")
	}
	holder := a.holderOf(entry.ASIN)

	if entry.AudibleOnly {
		if holder != nil {
			result.State = StateSkipped
			result.LibraryID = holder.ID
			result.Detail = "asin already on library record " + strconv.Itoa(holder.ID)
			return result
		}
		result.Action = reconcile.NewInsert(entry.ASIN, reconcile.PlaceholderFor(rec, a.tags), reconcile.ReasonManual)
		return result
	}

	var target *calibre.Record
	if entry.LibraryID > 0 {
		target = a.byID(entry.LibraryID)
		if target == nil {
			return reject("library record %d not found", entry.LibraryID)
		}
	} else {
		matches := a.byTitle(entry.CalibreTitle)
		switch len(matches) {
		case 0:
			return reject("no library record titled %q", entry.CalibreTitle)
		case 1:
			target = matches[0]
		default:
			ids := make([]string, 0, len(matches))
			for _, m := range matches {
				ids = append(ids, strconv.Itoa(m.ID))
			}
			return reject("title %q matches several records (%s); use calibre_id", entry.CalibreTitle, strings.Join(ids, ", "))
		}
	}

	result.LibraryID = target.ID
	switch {
	case audible.NormalizeASIN(target.ASIN) == entry.ASIN:
		result.State = StateSkipped
		result.Detail = "already linked"
		return result
	case target.Linked():
		return reject("library record %d is linked to %s", target.ID, target.ASIN)
	case holder != nil:
		return reject("asin already linked to library record %d", holder.ID)
	}
	result.Action = reconcile.NewUpdate(entry.ASIN, target.ID, reconcile.LinkPatch(rec, *target, nil), reconcile.ReasonManual)
	return result
}

func (a *Applier) load(ctx context.Context) error {
	if a.loaded {
		return nil
	}
	if a.store == nil {
		return services.Wrap(services.ErrConfiguration, "resolve", "store", "no library store configured", nil)
	}
	library, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	a.library = library
	a.loaded = true
	return nil
}

func (a *Applier) byID(id int) *calibre.Record {
	for i := range a.library {
		if a.library[i].ID == id {
			return &a.library[i]
		}
	}
	return nil
}

func (a *Applier) holderOf(asin string) *calibre.Record {
	var holder *calibre.Record
	for i := range a.library {
		rec := &a.library[i]
		if rec.Linked() && audible.NormalizeASIN(rec.ASIN) == asin && (holder == nil || rec.ID < holder.ID) {
			holder = rec
		}
	}
	return holder
}

// byTitle looks a title up exactly (trimmed, case- and accent-folded), then by
// normalised title when nothing matches exactly.
func (a *Applier) byTitle(title string) []*calibre.Record {
	want := textutil.CollapseSpace(textutil.Fold(title))
	var exact []*calibre.Record
	for i := range a.library {
		if textutil.CollapseSpace(textutil.Fold(a.library[i].Title)) == want {
			exact = append(exact, &a.library[i])
		}
	}
	if len(exact) > 0 {
		return sortRecords(exact)
	}
	normalized := identification.NormalizeTitle(title).Full
	if normalized == "" {
		return nil
	}
	var near []*calibre.Record
	for i := range a.library {
		if identification.NormalizeTitle(a.library[i].Title).Full == normalized {
			near = append(near, &a.library[i])
		}
	}
	return sortRecords(near)
}

func sortRecords(records []*calibre.Record) []*calibre.Record {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// remember keeps the local snapshot in step with applied actions so later
// entries in a batch see them.
func (a *Applier) remember(action *reconcile.Action) {
	switch action.Kind {
	case reconcile.ActionUpdate:
		if rec := a.byID(action.LibraryID); rec != nil {
			action.Patch.Apply(rec)
		}
	case reconcile.ActionInsert:
		rec := calibre.Record{ID: action.LibraryID, Title: action.Placeholder.Title, Authors: action.Placeholder.Authors}
		action.Placeholder.Patch.Apply(&rec)
		a.library = append(a.library, rec)
	}
}

func (a *Applier) log(ctx context.Context, result Result) {
	attrs := logging.DecisionAttrs("resolution", string(result.State), result.Detail)
	attrs = append(attrs,
		logging.String("target", result.Entry.Target()),
		logging.Int(logging.FieldLibraryID, result.LibraryID),
		logging.Bool("dry_run", result.DryRun))
	logger := logging.WithContext(ctx, a.logger)
	if result.State == StateRejected {
		logging.WarnWithContext(logger, "resolution rejected", "resolution_rejected",
			append(attrs,
				logging.String(logging.FieldErrorHint, "fix the entry and run it again"),
				logging.String(logging.FieldImpact, "entry skipped; batch continues"))...)
		return
	}
	logger.Info("resolution recorded", logging.Args(attrs...)...)
}

func lineDetail(entry Entry, detail string) string {
	if entry.Line > 0 {
		return fmt.Sprintf("line %d: %s", entry.Line, detail)
	}
	return detail
}

// RowResult converts a mapping row that failed to parse into a rejection.
func RowResult(row report.MappingRow, err error) Result {
	entry := Entry{ASIN: audible.NormalizeASIN(row.ASIN), Line: row.Line}
	detail := err.Error()
	return Result{
		Entry:  entry,
		State:  StateRejected,
		Detail: detail,
		Err:    services.Wrap(services.ErrAmbiguousResolution, "resolve", entry.ASIN, lineDetail(entry, detail), err),
	}
}

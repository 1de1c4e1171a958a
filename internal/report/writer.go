package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bergsfam/calibre-audible-integration/internal/fileutil"
	"github.com/bergsfam/calibre-audible-integration/internal/identification"
	"github.com/bergsfam/calibre-audible-integration/internal/reconcile"
)

// Artifact file names.
const (
	MatchedFile   = "matched.csv"
	AmbiguousFile = "ambiguous.csv"
	UnmatchedFile = "unmatched.csv"
	SummaryFile   = "summary.txt"
)

// FeedSnapshotFile is the copy of the Audible export a run matched against.
const FeedSnapshotFile = "audible_library.csv"

// DefaultCandidateLimit caps the candidate list written per ambiguous row.
const DefaultCandidateLimit = 5

var (
	matchedHeader   = []string{"asin", "audible_title", "audible_authors", "calibre_id", "calibre_title", "calibre_authors", "score", "method", "action", "status"}
	ambiguousHeader = []string{"asin", "audible_title", "audible_authors", "top_score", "candidates"}
	unmatchedHeader = []string{"asin", "audible_title", "audible_authors", "top_score", "action", "status"}
)

// RunInfo describes the run for summary.txt.
type RunInfo struct {
	RunID              string
	StartedAt          time.Time
	FeedPath           string
	Library            string
	DryRun             bool
	CreatePlaceholders bool
	MarkEbookOnly      bool
	Thresholds         identification.Thresholds
	Applied            reconcile.ApplySummary
	ApplyError         error
}

// Paths lists the files written for a run.
type Paths struct {
	Dir       string
	Matched   string
	Ambiguous string
	Unmatched string
	Summary   string
	// Feed is set once the export has been copied beside the reports.
	Feed      string
}

// DirName returns the default report directory name for a run start time.
func DirName(started time.Time) string {
	return "reports_" + started.Format("20060102_150405")
}

// Write serialises a plan into dir, creating it if needed.
func Write(dir string, info RunInfo, plan *reconcile.Plan, candidateLimit int) (Paths, error) {
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}
	paths := Paths{
		Dir:       dir,
		Matched:   filepath.Join(dir, MatchedFile),
		Ambiguous: filepath.Join(dir, AmbiguousFile),
		Unmatched: filepath.Join(dir, UnmatchedFile),
		Summary:   filepath.Join(dir, SummaryFile),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return paths, fmt.Errorf("create report dir: %w", err)
	}

	var matched, ambiguous, unmatched [][]string
	for _, item := range plan.Items {
		rec := item.Record
		switch item.Outcome.Kind {
		case identification.Confident:
			row := []string{item.Outcome.ASIN, rec.FullTitle(), rec.AuthorList(), strconv.Itoa(item.Outcome.LibraryID), "", "",
				strconv.Itoa(item.Outcome.Score), item.Outcome.Method, actionKind(item.Action), actionState(item.Action)}
			if item.Library != nil {
				row[4] = item.Library.Title
				row[5] = item.Library.AuthorList()
			}
			matched = append(matched, row)
		case identification.Ambiguous:
			ambiguous = append(ambiguous, []string{item.Outcome.ASIN, rec.FullTitle(), rec.AuthorList(),
				strconv.Itoa(item.Outcome.TopScore), FormatCandidates(item.Outcome.Candidates, candidateLimit)})
		default:
			row := []string{item.Outcome.ASIN, rec.FullTitle(), rec.AuthorList(), strconv.Itoa(item.Outcome.TopScore),
				actionKind(item.Action), actionState(item.Action)}
			if item.Action != nil && item.Action.Kind == reconcile.ActionInsert && item.Action.LibraryID > 0 {
				row[4] = fmt.Sprintf("%s:%d", row[4], item.Action.LibraryID)
			}
			unmatched = append(unmatched, row)
		}
	}

	if err := writeCSV(paths.Matched, matchedHeader, matched); err != nil {
		return paths, err
	}
	if err := writeCSV(paths.Ambiguous, ambiguousHeader, ambiguous); err != nil {
		return paths, err
	}
	if err := writeCSV(paths.Unmatched, unmatchedHeader, unmatched); err != nil {
		return paths, err
	}
	err := fileutil.WriteAtomic(paths.Summary, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, Summary(info, plan.Counts()))
		return err
	})
	if err != nil {
		return paths, fmt.Errorf("write %s: %w", SummaryFile, err)
	}
	return paths, nil
}

// FormatCandidates renders "id:score:title; ..." for at most limit candidates.
func FormatCandidates(candidates []identification.Candidate, limit int) string {
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		title := strings.ReplaceAll(c.Title, ";", ",")
		parts = append(parts, fmt.Sprintf("%d:%d:%s", c.LibraryID, c.Score, title))
	}
	return strings.Join(parts, "; ")
}

// Summary renders summary.txt.
func Summary(info RunInfo, counts reconcile.Counts) string {
	var b strings.Builder
	line := func(key string, value any) {
		fmt.Fprintf(&b, "%-22s %v\n", key+":", value)
	}
	line("Run ID", info.RunID)
	if !info.StartedAt.IsZero() {
		line("Started", info.StartedAt.Format(time.RFC3339))
	}
	line("Audible export", info.FeedPath)
	line("Calibre library", info.Library)
	line("Dry run", info.DryRun)
	line("Create placeholders", info.CreatePlaceholders)
	line("Mark ebook only", info.MarkEbookOnly)
	line("Match threshold", info.Thresholds.Match)
	line("Review threshold", info.Thresholds.Review)
	b.WriteString("\n")
	line("Audiobooks", counts.Audiobooks)
	line("Matched", counts.Confident)
	line("Already linked", counts.Linked)
	line("Ambiguous", counts.Ambiguous)
	line("Unmatched", counts.Unmatched)
	line("Updates planned", counts.Updates)
	line("Placeholders planned", counts.Inserts)
	line("Status sweeps planned", counts.Sweeps)
	b.WriteString("\n")
	line("Applied", info.Applied.Applied)
	line("Dry-run only", info.Applied.DryRun)
	line("Failed", info.Applied.Failed)
	line("Not attempted", info.Applied.Pending)
	if info.ApplyError != nil {
		line("Error", info.ApplyError)
	}
	return b.String()
}

func actionKind(action *reconcile.Action) string {
	if action == nil {
		return reconcile.ActionNoOp.String()
	}
	return action.Kind.String()
}

func actionState(action *reconcile.Action) string {
	if action == nil {
		return string(reconcile.StateNone)
	}
	if action.Kind == reconcile.ActionNoOp {
		return action.Reason
	}
	return string(action.State)
}

func writeCSV(path string, header []string, rows [][]string) error {
	err := fileutil.WriteAtomic(path, 0o644, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(header); err != nil {
			return err
		}
		return w.WriteAll(rows)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

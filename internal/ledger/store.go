package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bergsfam/calibre-audible-integration/internal/config"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// Store persists run history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// OpenFromConfig opens the ledger configured in cfg. It returns nil when the
// ledger is disabled.
func OpenFromConfig(cfg *config.Config) (*Store, error) {
	if cfg == nil || !cfg.Ledger.Enabled {
		return nil, nil
	}
	return Open(cfg.Ledger.Path)
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ledger", "open", "ledger path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a run and its actions in one transaction.
func (s *Store) Record(ctx context.Context, run Run, actions []Action) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin ledger tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `INSERT INTO runs (
			id, command, started_at, finished_at, feed_path, library, report_dir, dry_run, status, error_message,
			audiobooks, confident, ambiguous, unmatched, rejected, applied, failed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Command, formatTime(run.StartedAt), nullableTime(run.FinishedAt),
			nullableString(run.FeedPath), nullableString(run.Library), nullableString(run.ReportDir),
			boolToInt(run.DryRun), run.Status, nullableString(run.Error),
			run.Audiobooks, run.Confident, run.Ambiguous, run.Unmatched, run.Rejected, run.Applied, run.Failed,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO actions (
			run_id, seq, asin, library_id, kind, method, score, state, reason, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare action insert: %w", err)
		}
		defer stmt.Close()
		for idx, action := range actions {
			seq := action.Seq
			if seq == 0 {
				seq = idx + 1
			}
			if _, err := stmt.ExecContext(ctx,
				run.ID, seq, nullableString(action.ASIN), nullableInt(action.LibraryID), action.Kind,
				nullableString(action.Method), action.Score, action.State, nullableString(action.Reason), nullableString(action.Error),
			); err != nil {
				return fmt.Errorf("insert action %d: %w", seq, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = "id, command, started_at, finished_at, feed_path, library, report_dir, dry_run, status, error_message, audiobooks, confident, ambiguous, unmatched, rejected, applied, failed"

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Run returns a single run by id.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, services.Wrap(services.ErrNotFound, "ledger", "run", id, nil)
	}
	return run, err
}

// Actions returns the actions of a run in order.
func (s *Store) Actions(ctx context.Context, runID string) ([]Action, error) {
	return s.queryActions(ctx, "WHERE run_id = ? ORDER BY seq", runID)
}

// ActionsForASIN returns every recorded action for an ASIN, oldest run first.
func (s *Store) ActionsForASIN(ctx context.Context, asin string) ([]Action, error) {
	return s.queryActions(ctx,
		"JOIN runs r ON r.id = a.run_id WHERE a.asin = ? ORDER BY r.started_at, a.seq", strings.ToUpper(strings.TrimSpace(asin)))
}

func (s *Store) queryActions(ctx context.Context, clause string, args ...any) ([]Action, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT a.run_id, a.seq, a.asin, a.library_id, a.kind, a.method, a.score, a.state, a.reason, a.error_message FROM actions a "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var (
			action    Action
			asin      sql.NullString
			libraryID sql.NullInt64
			method    sql.NullString
			score     sql.NullInt64
			reason    sql.NullString
			errMsg    sql.NullString
		)
		if err := rows.Scan(&action.RunID, &action.Seq, &asin, &libraryID, &action.Kind, &method, &score, &action.State, &reason, &errMsg); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		action.ASIN = asin.String
		action.LibraryID = int(libraryID.Int64)
		action.Method = method.String
		if score.Valid {
			value := int(score.Int64)
			action.Score = &value
		}
		action.Reason = reason.String
		action.Error = errMsg.String
		out = append(out, action)
	}
	return out, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		startedRaw string
		finished   sql.NullString
		feedPath   sql.NullString
		library    sql.NullString
		reportDir  sql.NullString
		dryRun     int
		errMsg     sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Command, &startedRaw, &finished, &feedPath, &library, &reportDir, &dryRun,
		&run.Status, &errMsg, &run.Audiobooks, &run.Confident, &run.Ambiguous, &run.Unmatched, &run.Rejected,
		&run.Applied, &run.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt, _ = parseTimeString(startedRaw)
	if finished.Valid {
		run.FinishedAt, _ = parseTimeString(finished.String)
	}
	run.FeedPath = feedPath.String
	run.Library = library.String
	run.ReportDir = reportDir.String
	run.DryRun = dryRun != 0
	run.Error = errMsg.String
	return run, nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

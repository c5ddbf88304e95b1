// Package storage persists capture state in SQLite: the last successful
// run time, the set of providers already notified about a permission
// error, and a per-provider history of run results.
package storage

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const keyLastRun = "last_run"

// timestampLayout is fixed width so stored values sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store defines the state operations used by capture and the CLI.
type Store interface {
	LoadLastRun(ctx context.Context) (*time.Time, error)
	SaveLastRun(ctx context.Context, t time.Time) error
	LoadNotified(ctx context.Context) (map[string]bool, error)
	SaveNotified(ctx context.Context, notified map[string]bool) error
	RecordSourceRuns(ctx context.Context, ranAt time.Time, runs []SourceRun) (string, error)
	LatestRuns(ctx context.Context) ([]SourceRun, error)
	CountRunsBefore(ctx context.Context, olderThan time.Time) (int64, error)
	PruneRuns(ctx context.Context, olderThan time.Time) (int64, error)
	Reset(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	ownsDB bool

	// Prepared statements
	getState *sql.Stmt
	putState *sql.Stmt
}

// NewSQLiteStore creates a SQLiteStore from an already-opened and migrated
// database. The caller keeps ownership of db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.prepareStatements(); err != nil {
		return nil, errors.Wrap(err, "prepare statements")
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getState, err = s.db.Prepare(`SELECT value FROM run_state WHERE key = ?`)
	if err != nil {
		return err
	}

	s.putState, err = s.db.Prepare(`
		INSERT INTO run_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("cannot parse timestamp: %s", s)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// LoadLastRun returns the last successful run time in local time, or nil
// when no run has been recorded.
func (s *SQLiteStore) LoadLastRun(ctx context.Context) (*time.Time, error) {
	var raw string
	err := s.getState.QueryRowContext(ctx, keyLastRun).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load last_run")
	}
	t, err := parseTimestamp(raw)
	if err != nil {
		return nil, errors.Wrap(err, "load last_run")
	}
	t = t.Local()
	return &t, nil
}

// SaveLastRun records t as the last successful run.
func (s *SQLiteStore) SaveLastRun(ctx context.Context, t time.Time) error {
	if _, err := s.putState.ExecContext(ctx, keyLastRun, formatTimestamp(t)); err != nil {
		return errors.Wrap(err, "save last_run")
	}
	return nil
}

// LoadNotified returns the providers currently flagged as notified.
func (s *SQLiteStore) LoadNotified(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source FROM notified_sources`)
	if err != nil {
		return nil, errors.Wrap(err, "load notified sources")
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, errors.Wrap(err, "scan notified source")
		}
		out[src] = true
	}
	return out, rows.Err()
}

// SaveNotified makes the stored set equal to notified in one transaction.
// Sources already present keep their notified_at.
func (s *SQLiteStore) SaveNotified(ctx context.Context, notified map[string]bool) error {
	sources := make([]string, 0, len(notified))
	for src, on := range notified {
		if on {
			sources = append(sources, src)
		}
	}
	sort.Strings(sources)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	del := `DELETE FROM notified_sources`
	args := make([]any, len(sources))
	if len(sources) > 0 {
		del += ` WHERE source NOT IN (?` + strings.Repeat(`, ?`, len(sources)-1) + `)`
		for i, src := range sources {
			args[i] = src
		}
	}
	if _, err := tx.ExecContext(ctx, del, args...); err != nil {
		return errors.Wrap(err, "clear resolved notified sources")
	}

	for _, src := range sources {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notified_sources (source) VALUES (?) ON CONFLICT(source) DO NOTHING`, src,
		); err != nil {
			return errors.Wrapf(err, "insert notified source %s", src)
		}
	}

	return errors.Wrap(tx.Commit(), "commit notified sources")
}

// RecordSourceRuns stores one row per provider under a fresh run id and
// returns that id.
func (s *SQLiteStore) RecordSourceRuns(ctx context.Context, ranAt time.Time, runs []SourceRun) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	ts := formatTimestamp(ranAt)
	for _, r := range runs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO source_runs (run_id, ran_at, source, status, kind, visits, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, ts, r.Source, r.Status, r.Kind, r.Visits, r.Error,
		)
		if err != nil {
			return "", errors.Wrapf(err, "insert source run %s", r.Source)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit source runs")
	}
	return runID, nil
}

// LatestRuns returns the rows of the most recently recorded run, ordered
// by source. It returns an empty slice when nothing has been recorded.
func (s *SQLiteStore) LatestRuns(ctx context.Context) ([]SourceRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, ran_at, source, status, kind, visits, error
		FROM source_runs
		WHERE run_id = (SELECT run_id FROM source_runs ORDER BY id DESC LIMIT 1)
		ORDER BY source
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query latest runs")
	}
	defer rows.Close()

	runs := []SourceRun{}
	for rows.Next() {
		var r SourceRun
		var ranAt string
		if err := rows.Scan(&r.ID, &r.RunID, &ranAt, &r.Source, &r.Status, &r.Kind, &r.Visits, &r.Error); err != nil {
			return nil, errors.Wrap(err, "scan source run")
		}
		if t, err := parseTimestamp(ranAt); err == nil {
			r.RanAt = t.Local()
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRunsBefore counts source_runs rows older than olderThan.
func (s *SQLiteStore) CountRunsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM source_runs WHERE ran_at < ?`, formatTimestamp(olderThan),
	).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count source runs")
	}
	return n, nil
}

// PruneRuns deletes source_runs rows older than olderThan.
func (s *SQLiteStore) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM source_runs WHERE ran_at < ?`, formatTimestamp(olderThan),
	)
	if err != nil {
		return 0, errors.Wrap(err, "prune source runs")
	}
	return res.RowsAffected()
}

// Reset forgets last_run and the notified set. Run history is kept.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		`DELETE FROM run_state WHERE key = 'last_run'`,
		`DELETE FROM notified_sources`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "reset (%s)", stmt)
		}
	}
	return errors.Wrap(tx.Commit(), "commit reset")
}

// Close releases prepared statements, and the database itself when the
// store opened it.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.getState, s.putState} {
		if stmt != nil {
			stmt.Close() //nolint:errcheck
		}
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

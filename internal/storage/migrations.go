package storage

import (
	"database/sql"

	"github.com/cockroachdb/errors"
)

// ErrSchemaTooNew is returned when the state database was migrated by a
// newer histdigest than this one.
var ErrSchemaTooNew = errors.New("state database schema is newer than this binary")

// migration is one versioned schema change.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// MigrationRunner brings the state database up to the latest schema.
type MigrationRunner struct {
	db         *sql.DB
	migrations []migration
}

// NewMigrationRunner returns a runner for every known state migration, in
// version order.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db: db,
		migrations: []migration{
			{Version: 1, Name: "state_schema", Apply: migrateV001},
		},
	}
}

// Latest is the highest schema version this binary knows.
func (r *MigrationRunner) Latest() int {
	if len(r.migrations) == 0 {
		return 0
	}
	return r.migrations[len(r.migrations)-1].Version
}

// Run sets the connection pragmas, then applies each migration above the
// recorded version in its own transaction.
func (r *MigrationRunner) Run() error {
	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := r.db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "exec %q", pragma)
		}
	}

	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return errors.Wrap(err, "create schema_migrations table")
	}

	current, err := r.CurrentVersion()
	if err != nil {
		return err
	}
	if current > r.Latest() {
		return errors.WithHintf(
			errors.Wrapf(ErrSchemaTooNew, "schema version %d, binary supports %d", current, r.Latest()),
			"upgrade histdigest or run with a different storage.path",
		)
	}

	for _, m := range r.migrations {
		if m.Version <= current {
			continue
		}
		if err := r.apply(m); err != nil {
			return errors.Wrapf(err, "apply migration %d (%s)", m.Version, m.Name)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration, 0 for a fresh file.
func (r *MigrationRunner) CurrentVersion() (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	return int(v.Int64), nil
}

func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name,
	); err != nil {
		return errors.Wrap(err, "record migration")
	}
	return errors.Wrap(tx.Commit(), "commit migration")
}

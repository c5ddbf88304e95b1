package storage

import "database/sql"

// migrateV001 creates the state schema. Every statement uses IF NOT EXISTS
// for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS run_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS notified_sources (
			source      TEXT PRIMARY KEY,
			notified_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS source_runs (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			ran_at DATETIME NOT NULL,
			source TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('ok', 'error')),
			kind   TEXT NOT NULL DEFAULT '',
			visits INTEGER NOT NULL DEFAULT 0,
			error  TEXT NOT NULL DEFAULT ''
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_source_runs_run_id ON source_runs(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_source_runs_ran_at ON source_runs(ran_at)`,
		`CREATE INDEX IF NOT EXISTS idx_source_runs_source ON source_runs(source)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

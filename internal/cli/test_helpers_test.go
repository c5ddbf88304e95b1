package cli

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pterm/pterm"
	"github.com/runnerr0/histdigest/internal/config"
	"github.com/runnerr0/histdigest/internal/storage"
	"github.com/stretchr/testify/require"
)

func init() {
	pterm.DisableColor()
}

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// openTestStore creates a migrated in-memory store.
func openTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	_, store := openTestDBStore(t)
	return store
}

// openTestDBStore is openTestStore that also returns the raw handle.
func openTestDBStore(t *testing.T) (*sql.DB, *storage.SQLiteStore) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return db, store
}

// testConfig returns defaults with every path under a temp dir and both
// browsers disabled.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = filepath.Join(dir, "digests")
	cfg.Storage.Path = filepath.Join(dir, "state")
	cfg.Sources.Chrome.Enabled = false
	cfg.Sources.Chrome.BaseDir = filepath.Join(dir, "chrome")
	cfg.Sources.Safari.Enabled = false
	cfg.Sources.Safari.HistoryPath = filepath.Join(dir, "safari", "History.db")
	cfg.Notifications.Enabled = false
	return cfg
}

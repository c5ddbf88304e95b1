// Package browser reads visit rows out of Chrome and Safari history
// databases. Live databases are never opened directly: each fetch copies
// the file and its WAL sidecars into a private temp dir first.
package browser

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-sqlite3"
	"github.com/runnerr0/histdigest/internal/history"
)

// FullDiskAccessHint is attached to permission failures.
const FullDiskAccessHint = "grant Full Disk Access to histdigest in System Settings > Privacy & Security"

var sidecarSuffixes = []string{"-wal", "-shm"}

// snapshot is a throwaway copy of a history database.
type snapshot struct {
	dir  string
	path string
}

func takeSnapshot(src string) (*snapshot, error) {
	dir, err := os.MkdirTemp("", "histdigest-*")
	if err != nil {
		return nil, errors.Wrap(err, "create snapshot dir")
	}
	s := &snapshot{dir: dir, path: filepath.Join(dir, filepath.Base(src))}

	if err := copyFile(src, s.path); err != nil {
		s.Close()
		return nil, err
	}
	for _, suffix := range sidecarSuffixes {
		err := copyFile(src+suffix, s.path+suffix)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close removes the copy and its sidecars.
func (s *snapshot) Close() error {
	return os.RemoveAll(s.dir)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// openReadOnly opens a snapshot with the sqlite3 driver in read-only mode.
func openReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// readVisits snapshots src, runs query against the copy and scans each row.
// A missing database yields no rows and no error.
func readVisits(ctx context.Context, name, src, query string, args []any, scan func(*sql.Rows) (history.RawVisit, error)) ([]history.RawVisit, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(name, err)
	}
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	snap, err := takeSnapshot(src)
	if err != nil {
		return nil, classify(name, err)
	}
	defer snap.Close()

	db, err := openReadOnly(ctx, snap.path)
	if err != nil {
		return nil, classify(name, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(name, err)
	}
	defer rows.Close()

	var out []history.RawVisit
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, classify(name, errors.Wrap(err, "scan visit"))
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(name, err)
	}
	return out, nil
}

// classify turns a raw failure into a *history.ProviderError.
func classify(name string, err error) error {
	switch {
	case isPermission(err):
		return errors.WithHint(history.NewProviderError(name, history.KindPermission, err), FullDiskAccessHint)
	case errors.Is(err, context.DeadlineExceeded):
		return history.NewProviderError(name, history.KindTimeout, err)
	case errors.Is(err, fs.ErrNotExist):
		return history.NewProviderError(name, history.KindNotFound, err)
	default:
		return history.NewProviderError(name, history.KindOther, err)
	}
}

// isPermission matches EACCES and EPERM from the filesystem plus the
// equivalent sqlite result codes.
func isPermission(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrPerm || sqlErr.Code == sqlite3.ErrAuth
	}
	return false
}

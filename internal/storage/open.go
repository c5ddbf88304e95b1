package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// OpenDB opens and migrates the state database at path.
func OpenDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create state directory")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open state database")
	}
	if err := NewMigrationRunner(db).Run(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate state database")
	}
	return db, nil
}

// OpenStore opens the state database at path and returns a store that owns
// it. A file sqlite cannot read as a database is moved aside to
// "<path>.corrupt-<unix>" and replaced with an empty one.
func OpenStore(path string, log *zap.SugaredLogger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	db, err := OpenDB(path)
	if err != nil && isCorrupt(err) {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		log.Warnw("state database unreadable, starting fresh", "path", path, "moved_to", aside, "error", err)
		if mvErr := moveAside(path, aside); mvErr != nil {
			return nil, errors.CombineErrors(err, mvErr)
		}
		db, err = OpenDB(path)
	}
	if err != nil {
		return nil, err
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

func isCorrupt(err error) bool {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.Code == sqlite3.ErrNotADB || sqlErr.Code == sqlite3.ErrCorrupt
}

func moveAside(path, aside string) error {
	if err := os.Rename(path, aside); err != nil {
		return errors.Wrap(err, "move corrupt state database aside")
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(path+suffix, aside+suffix); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "move corrupt state sidecar aside")
		}
	}
	return nil
}

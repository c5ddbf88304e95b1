package digest

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/fsutil"
)

// FileSink stores one markdown file per bucket key under Dir.
type FileSink struct {
	Dir string
}

// NewFileSink returns a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Path returns the document path for key.
func (s *FileSink) Path(key string) string {
	return filepath.Join(s.Dir, key+".md")
}

// Exists reports whether a document for key has been written.
func (s *FileSink) Exists(key string) (bool, error) {
	_, err := os.Stat(s.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat digest %s", key)
}

// Write replaces the document for key atomically.
func (s *FileSink) Write(key string, content []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create digest directory %s", s.Dir)
	}
	if err := fsutil.WriteFileAtomic(s.Path(key), content, 0o644); err != nil {
		return errors.Wrapf(err, "write digest %s", key)
	}
	return nil
}

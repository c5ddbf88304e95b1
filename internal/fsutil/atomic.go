// Package fsutil holds small filesystem helpers shared by the output writers.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// WriteFileAtomic replaces path with data. The content is staged in a
// hidden sibling file, synced, then renamed over path; the staging file is
// removed on every failure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	staged, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "stage %s", path)
	}
	defer func() {
		if err != nil {
			staged.Close() //nolint:errcheck
			os.Remove(staged.Name()) //nolint:errcheck
		}
	}()

	if _, err = staged.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", staged.Name())
	}
	if err = staged.Chmod(perm); err != nil {
		return errors.Wrapf(err, "chmod %s", staged.Name())
	}
	if err = staged.Sync(); err != nil {
		return errors.Wrapf(err, "sync %s", staged.Name())
	}
	if err = staged.Close(); err != nil {
		return errors.Wrapf(err, "close %s", staged.Name())
	}
	if err = os.Rename(staged.Name(), path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, "remove %s", path)
}

package alert

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/fsutil"
)

// IndicatorFileName is the visible error file in the output directory.
const IndicatorFileName = "PERMISSION_ERROR.txt"

// Indicator is a human-visible document describing current errors.
type Indicator interface {
	Write(messages []string) error
	Remove() error
}

// FileIndicator keeps the indicator as a plain text file.
type FileIndicator struct {
	Path string
}

// NewFileIndicator places the indicator in dir.
func NewFileIndicator(dir string) *FileIndicator {
	return &FileIndicator{Path: filepath.Join(dir, IndicatorFileName)}
}

const indicatorTemplate = `HISTDIGEST BROWSER CAPTURE - PERMISSION ERROR

One or more browser history sources cannot be read due to OS permissions.

ERRORS:
%ERRORS%

HOW TO FIX:
1. Open System Settings (or System Preferences)
2. Go to Privacy & Security -> Full Disk Access
3. Click the lock to make changes
4. Click + and add the histdigest binary (or the terminal that runs it)
5. Ensure the checkbox is enabled

After granting permission, this file is removed automatically on the next successful run.
`

// Write replaces the indicator with the given error lines.
func (f *FileIndicator) Write(messages []string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return errors.Wrap(err, "create indicator directory")
	}
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = "  - " + m
	}
	body := strings.Replace(indicatorTemplate, "%ERRORS%", strings.Join(lines, "\n"), 1)
	return errors.Wrap(fsutil.WriteFileAtomic(f.Path, []byte(body), 0o644), "write indicator")
}

// Remove deletes the indicator if present.
func (f *FileIndicator) Remove() error {
	return errors.Wrap(fsutil.RemoveIfExists(f.Path), "remove indicator")
}

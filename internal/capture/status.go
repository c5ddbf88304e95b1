package capture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/fsutil"
	"github.com/runnerr0/histdigest/internal/history"
	"github.com/runnerr0/histdigest/internal/storage"
)

// StatusFileName is the machine-readable run summary in the output dir.
const StatusFileName = ".status"

// SourceStatus is one provider's entry in the status file.
type SourceStatus struct {
	Status  string `json:"status"`
	Entries *int   `json:"entries,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Status is the content of the status file.
type Status struct {
	LastRun   time.Time               `json:"last_run"`
	HasErrors bool                    `json:"has_errors"`
	Sources   map[string]SourceStatus `json:"sources"`
}

// BuildStatus summarizes a run's provider outcomes.
func BuildStatus(ranAt time.Time, outcomes []ProviderOutcome) Status {
	st := Status{LastRun: ranAt, Sources: make(map[string]SourceStatus, len(outcomes))}
	for _, o := range outcomes {
		if o.Err != nil {
			st.HasErrors = true
			st.Sources[o.Provider] = SourceStatus{
				Status: storage.StatusError,
				Error:  causeText(o.Err),
				Kind:   history.KindOf(o.Err).String(),
			}
			continue
		}
		n := o.Visits
		st.Sources[o.Provider] = SourceStatus{Status: storage.StatusOK, Entries: &n}
	}
	return st
}

// WriteStatus replaces the status file at path.
func WriteStatus(path string, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal status")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create status directory")
	}
	return errors.Wrap(fsutil.WriteFileAtomic(path, append(data, '\n'), 0o644), "write status")
}

// ReadStatus loads a status file written by WriteStatus.
func ReadStatus(path string) (*Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read status")
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(err, "parse status")
	}
	return &st, nil
}

// causeText is the provider error without its "source: kind:" prefix.
func causeText(err error) string {
	var pe *history.ProviderError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

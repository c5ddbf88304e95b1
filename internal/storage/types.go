package storage

import "time"

// Source run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// SourceRun is one provider's result within one capture run.
type SourceRun struct {
	ID     int64
	RunID  string
	RanAt  time.Time
	Source string
	Status string // StatusOK or StatusError
	Kind   string // error kind; empty when ok
	Visits int
	Error  string
}

// Failed reports whether the provider errored in this run.
func (r SourceRun) Failed() bool { return r.Status == StatusError }

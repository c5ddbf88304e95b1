package capture

import (
	"time"

	"github.com/runnerr0/histdigest/internal/digest"
)

// Lookback is how far before the previous run a scan starts, so visits
// committed to a browser database late are not missed.
const Lookback = time.Hour

// Window is the scan range of one run. A nil Since means full backfill.
type Window struct {
	Since *time.Time
}

// Backfill reports whether the window covers all history.
func (w Window) Backfill() bool { return w.Since == nil }

// PlanWindow picks the earliest of lastRun minus Lookback and the start of
// the period containing now, so the open bucket is always rebuilt in full.
func PlanWindow(lastRun *time.Time, now time.Time, mode digest.Mode) Window {
	if lastRun == nil {
		return Window{}
	}
	since := lastRun.Add(-Lookback)
	if start := mode.PeriodStart(now); start.Before(since) {
		since = start
	}
	return Window{Since: &since}
}

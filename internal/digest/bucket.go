// Package digest groups visits into calendar buckets, decides which bucket
// documents to rewrite, renders them as markdown and stores them on disk.
package digest

import (
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/history"
)

// Mode is the bucket granularity.
type Mode string

const (
	Daily  Mode = "daily"
	Weekly Mode = "weekly"
)

// ParseMode validates a mode name from config or flags.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Daily, Weekly:
		return Mode(s), nil
	default:
		return "", errors.Newf("unknown digest mode %q", s)
	}
}

// Bucket is one output document's worth of visits.
type Bucket struct {
	Key    string
	Start  time.Time
	Visits []history.Visit // merged and deduplicated
}

// Key returns the bucket key containing t: YYYY-MM-DD or YYYY-Www.
func (m Mode) Key(t time.Time) string {
	t = t.Local()
	if m == Weekly {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return t.Format("2006-01-02")
}

// PeriodStart returns the local start of the bucket containing t: midnight
// for daily, Monday midnight for weekly.
func (m Mode) PeriodStart(t time.Time) time.Time {
	t = t.Local()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	if m != Weekly {
		return day
	}
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// Group buckets visits by their local calendar period. Each bucket is
// merged and deduplicated on its own; buckets come back oldest first.
func Group(visits []history.Visit, mode Mode) []Bucket {
	byKey := make(map[string]*Bucket)
	var order []string
	for _, v := range visits {
		key := mode.Key(v.Timestamp)
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key, Start: mode.PeriodStart(v.Timestamp)}
			byKey[key] = b
			order = append(order, key)
		}
		b.Visits = append(b.Visits, v)
	}

	buckets := make([]Bucket, 0, len(order))
	for _, key := range order {
		b := byKey[key]
		b.Visits = history.MergeDedup(b.Visits)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}

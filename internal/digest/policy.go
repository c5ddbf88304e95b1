package digest

import "time"

// IsCurrent reports whether key is the bucket containing now.
func (m Mode) IsCurrent(key string, now time.Time) bool {
	return m.Key(now) == key
}

// ShouldWrite decides whether a bucket's document is (re)written this run.
// The open bucket is always regenerated in full; a closed bucket is
// materialized once and then left alone.
func (m Mode) ShouldWrite(key string, now time.Time, exists bool) bool {
	return m.IsCurrent(key, now) || !exists
}

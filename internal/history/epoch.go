package history

import (
	"math"
	"time"
)

const (
	// WebKitEpochOffset is the number of seconds between 1601-01-01 and
	// 1970-01-01 UTC.
	WebKitEpochOffset = 11644473600

	// MacAbsoluteEpochOffset is the number of seconds between 1970-01-01
	// and 2001-01-01 UTC.
	MacAbsoluteEpochOffset = 978307200
)

// NativeTime is a timestamp in a browser's own epoch.
type NativeTime interface {
	Time() time.Time
	Valid() bool
}

// WebKitTime counts microseconds since 1601-01-01 UTC (Chrome).
type WebKitTime int64

// Time converts to local time.
func (w WebKitTime) Time() time.Time {
	return time.UnixMicro(int64(w) - WebKitEpochOffset*1_000_000).Local()
}

// Valid reports whether w is a usable visit time.
func (w WebKitTime) Valid() bool { return w > 0 }

// WebKitSince converts t to the WebKit cutoff used in provider queries.
func WebKitSince(t time.Time) WebKitTime {
	return WebKitTime((t.Unix()+WebKitEpochOffset)*1_000_000 + int64(t.Nanosecond()/1000))
}

// MacAbsoluteTime counts seconds since 2001-01-01 UTC (Safari).
type MacAbsoluteTime float64

// Time converts to local time.
func (m MacAbsoluteTime) Time() time.Time {
	sec, frac := math.Modf(float64(m))
	return time.Unix(int64(sec)+MacAbsoluteEpochOffset, int64(frac*1e9)).Local()
}

// Valid reports whether m is finite.
func (m MacAbsoluteTime) Valid() bool {
	return !math.IsNaN(float64(m)) && !math.IsInf(float64(m), 0)
}

// MacAbsoluteSince converts t to the Mac absolute cutoff used in provider
// queries.
func MacAbsoluteSince(t time.Time) MacAbsoluteTime {
	return MacAbsoluteTime(float64(t.UnixNano())/1e9 - MacAbsoluteEpochOffset)
}

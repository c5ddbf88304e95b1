package history

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWebKitTimeUsesFixedOffset(t *testing.T) {
	got := WebKitTime(13320547496000000).Time()

	// (13320547496000000 / 1e6) - 11644473600
	want := time.Unix(13320547496-WebKitEpochOffset, 0)
	assert.True(t, want.Equal(got), "got %v want %v", got, want)
	assert.Equal(t, int64(1676073896), got.Unix())
	assert.Equal(t, time.Local, got.Location())
}

func TestWebKitTimeKeepsMicroseconds(t *testing.T) {
	got := WebKitTime(13320547496123456).Time()
	assert.Equal(t, 123456000, got.Nanosecond())
}

func TestWebKitSinceIsInverse(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 15, 250000000, time.Local)
	native := WebKitSince(ts)
	assert.True(t, ts.Equal(native.Time()))
	assert.Equal(t, WebKitTime((ts.Unix()+WebKitEpochOffset)*1_000_000+250000), native)
}

func TestWebKitValid(t *testing.T) {
	assert.True(t, WebKitTime(13320547496000000).Valid())
	assert.False(t, WebKitTime(0).Valid())
	assert.False(t, WebKitTime(-5).Valid())
}

func TestMacAbsoluteTimeUsesFixedOffset(t *testing.T) {
	assert.Equal(t, int64(MacAbsoluteEpochOffset), MacAbsoluteTime(0).Time().Unix())

	got := MacAbsoluteTime(730000000.5).Time()
	assert.Equal(t, int64(730000000+MacAbsoluteEpochOffset), got.Unix())
	assert.Equal(t, 500000000, got.Nanosecond())
	assert.Equal(t, time.Local, got.Location())
}

func TestMacAbsoluteSinceIsInverse(t *testing.T) {
	ts := time.Unix(MacAbsoluteEpochOffset+100, 500000000)
	assert.InDelta(t, 100.5, float64(MacAbsoluteSince(ts)), 1e-6)

	back := MacAbsoluteSince(ts).Time()
	assert.InDelta(t, float64(ts.UnixNano()), float64(back.UnixNano()), 1e3)
}

func TestMacAbsoluteValid(t *testing.T) {
	assert.True(t, MacAbsoluteTime(0).Valid())
	assert.True(t, MacAbsoluteTime(-10).Valid())
	assert.False(t, MacAbsoluteTime(math.NaN()).Valid())
	assert.False(t, MacAbsoluteTime(math.Inf(1)).Valid())
}

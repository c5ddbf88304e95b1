package history

import (
	"math"
	"testing"
	"time"

	"github.com/runnerr0/histdigest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestNormalizer(t *testing.T, opts NormalizerOptions) *Normalizer {
	t.Helper()
	if opts.ExcludedPrefixes == nil {
		opts.ExcludedPrefixes = config.DefaultExcludedPrefixes()
	}
	if opts.TrackingKeys == nil {
		opts.TrackingKeys = config.DefaultTrackingParams()
	}
	n, err := NewNormalizer(opts)
	require.NoError(t, err)
	return n
}

func TestNormalize_ConvertsRow(t *testing.T) {
	n := newTestNormalizer(t, NormalizerOptions{})

	v, err := n.Normalize(RawVisit{
		URL:     "https://go.dev/doc/?utm_campaign=x#intro",
		Title:   "  Go   \n Docs ",
		Visited: WebKitTime(13320547496000000),
		Source:  "Default",
	}, "Chrome/Default")
	require.NoError(t, err)

	assert.Equal(t, "https://go.dev/doc/", v.URL)
	assert.Equal(t, "Go Docs", v.Title)
	assert.Equal(t, int64(1676073896), v.Timestamp.Unix())
	assert.Equal(t, "Default", v.Source)
}

func TestNormalize_SourceFallsBackToProvider(t *testing.T) {
	n := newTestNormalizer(t, NormalizerOptions{})
	v, err := n.Normalize(RawVisit{URL: "https://a.com", Visited: MacAbsoluteTime(1)}, "Safari")
	require.NoError(t, err)
	assert.Equal(t, "Safari", v.Source)
	assert.Equal(t, UntitledTitle, v.Title)
}

func TestNormalize_ExcludedPrefixes(t *testing.T) {
	n := newTestNormalizer(t, NormalizerOptions{})
	for _, u := range []string{
		"chrome://settings",
		"chrome-extension://abc/popup.html",
		"about:blank",
		"file:///Users/me/notes.txt",
		"devtools://devtools/bundled/inspector.html",
		"edge://flags",
	} {
		_, err := n.Normalize(RawVisit{URL: u, Visited: WebKitTime(13320547496000000)}, "p")
		assert.ErrorIs(t, err, ErrExcluded, u)
	}
}

func TestNormalize_Denylist(t *testing.T) {
	n := newTestNormalizer(t, NormalizerOptions{
		DenyDomains: []string{"chase.com", ".Secret.org"},
		DenyRegex:   []string{`.*\.xxx$`},
	})

	denied := []string{
		"https://chase.com/login",
		"https://secure.chase.com/acct",
		"https://www.secret.org/",
		"https://site.xxx/",
	}
	for _, u := range denied {
		_, err := n.Normalize(RawVisit{URL: u, Visited: MacAbsoluteTime(1)}, "p")
		assert.ErrorIs(t, err, ErrExcluded, u)
	}

	_, err := n.Normalize(RawVisit{URL: "https://notchase.com/", Visited: MacAbsoluteTime(1)}, "p")
	assert.NoError(t, err)
}

func TestNewNormalizer_BadRegex(t *testing.T) {
	_, err := NewNormalizer(NormalizerOptions{DenyRegex: []string{"(["}})
	assert.Error(t, err)
}

func TestNormalize_RowErrors(t *testing.T) {
	n := newTestNormalizer(t, NormalizerOptions{})

	_, err := n.Normalize(RawVisit{URL: "", Visited: WebKitTime(1)}, "p")
	assert.Error(t, err)

	_, err = n.Normalize(RawVisit{URL: "https://a.com"}, "p")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrExcluded)

	_, err = n.Normalize(RawVisit{URL: "https://a.com", Visited: MacAbsoluteTime(math.NaN())}, "p")
	assert.Error(t, err)
}

func TestNormalizeAll_DropsBadRowsAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := newTestNormalizer(t, NormalizerOptions{Logger: zap.New(core).Sugar()})

	raws := []RawVisit{
		{URL: "https://a.com/1", Title: "One", Visited: WebKitTime(13320547496000000)},
		{URL: "chrome://history", Title: "History", Visited: WebKitTime(13320547496000000)},
		{URL: "https://a.com/2", Title: "Two", Visited: WebKitTime(0)},
		{URL: "https://a.com/3", Title: "Three", Visited: WebKitTime(13320547497000000)},
	}

	visits := n.NormalizeAll(raws, "Chrome/Default")
	require.Len(t, visits, 2)
	assert.Equal(t, "https://a.com/1", visits[0].URL)
	assert.Equal(t, "https://a.com/3", visits[1].URL)

	// Only the malformed row is logged; the excluded one is silent.
	entries := logs.FilterMessage("dropping history row").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Chrome/Default", entries[0].ContextMap()["source"])
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "Untitled"},
		{"   \t\n ", "Untitled"},
		{"Hello\n\tWorld", "Hello World"},
		{"[Draft] A | B", `\[Draft\] A \| B`},
		{"  spaced  out  ", "spaced out"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTitle(tt.in), "input %q", tt.in)
	}
}

func TestNormalizedVisitTimestampIsLocal(t *testing.T) {
	n := newTestNormalizer(t, NormalizerOptions{})
	v, err := n.Normalize(RawVisit{URL: "https://a.com", Visited: MacAbsoluteTime(0)}, "Safari")
	require.NoError(t, err)
	assert.Equal(t, time.Local, v.Timestamp.Location())
}

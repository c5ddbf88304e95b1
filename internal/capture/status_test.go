package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStatus(t *testing.T) {
	ranAt := time.Date(2024, 3, 6, 15, 0, 0, 0, time.Local)
	st := BuildStatus(ranAt, []ProviderOutcome{
		{Provider: "Chrome/Default", Visits: 0},
		{Provider: "Safari", Err: history.NewProviderError("Safari", history.KindTimeout, context.DeadlineExceeded)},
	})

	assert.True(t, st.HasErrors)
	require.NotNil(t, st.Sources["Chrome/Default"].Entries)
	assert.Equal(t, 0, *st.Sources["Chrome/Default"].Entries)
	assert.Equal(t, SourceStatus{Status: "error", Error: "context deadline exceeded", Kind: "timeout"}, st.Sources["Safari"])

	clean := BuildStatus(ranAt, []ProviderOutcome{{Provider: "Safari", Visits: 2}})
	assert.False(t, clean.HasErrors)
}

func TestWriteStatus_JSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), StatusFileName)
	ranAt := time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)
	st := BuildStatus(ranAt, []ProviderOutcome{
		{Provider: "Safari", Visits: 3},
		{Provider: "Chrome/Work", Err: errors.New("boom")},
	})
	require.NoError(t, WriteStatus(path, st))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"last_run": "2024-03-06T15:00:00Z",
		"has_errors": true,
		"sources": {
			"Safari": {"status": "ok", "entries": 3},
			"Chrome/Work": {"status": "error", "error": "boom", "kind": "other"}
		}
	}`, string(data))
}

func TestReadStatus_Missing(t *testing.T) {
	_, err := ReadStatus(filepath.Join(t.TempDir(), StatusFileName))
	assert.Error(t, err)
}

package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runnerr0/histdigest/internal/alert"
	"github.com/runnerr0/histdigest/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatus_FreshState(t *testing.T) {
	store := openTestStore(t)
	cfg := testConfig(t)

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), cfg, store, nil))
	})

	assert.Contains(t, output, "histdigest status")
	assert.Contains(t, output, "Version:       dev")
	assert.Contains(t, output, "Last run:      never")
	assert.Contains(t, output, "(daily)")
	assert.Contains(t, output, "Retention:     30 days")
	assert.Contains(t, output, "No runs recorded yet.")
	assert.NotContains(t, output, "permission errors outstanding")
}

func TestStatus_WithRuns(t *testing.T) {
	store := openTestStore(t)
	cfg := testConfig(t)
	ctx := context.Background()

	ranAt := time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.SaveLastRun(ctx, ranAt))
	_, err := store.RecordSourceRuns(ctx, ranAt, []storage.SourceRun{
		{Source: "Chrome/Default", Status: storage.StatusOK, Visits: 42},
		{Source: "Safari", Status: storage.StatusError, Kind: "permission", Error: "operation not permitted"},
	})
	require.NoError(t, err)

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(ctx, cfg, store, nil))
	})

	assert.Contains(t, output, ranAt.Format("2006-01-02 15:04:05"))
	assert.Contains(t, output, "2 hours ago")
	assert.Contains(t, output, "Chrome/Default")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "Safari")
	assert.Contains(t, output, "operation not permitted")
}

func TestStatus_ReportsPermissionIndicator(t *testing.T) {
	store := openTestStore(t)
	cfg := testConfig(t)

	require.NoError(t, os.MkdirAll(cfg.Output.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Output.Dir, alert.IndicatorFileName), []byte("x"), 0o644))

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), cfg, store, nil))
	})

	assert.Contains(t, output, "permission errors outstanding")
	assert.Contains(t, output, alert.IndicatorFileName)
}

func TestStatus_JSONOutput(t *testing.T) {
	store := openTestStore(t)
	cfg := testConfig(t)
	cfg.Output.Mode = "weekly"
	ctx := context.Background()

	ranAt := time.Date(2024, 3, 6, 15, 0, 0, 0, time.Local)
	require.NoError(t, store.SaveLastRun(ctx, ranAt))
	require.NoError(t, store.SaveNotified(ctx, map[string]bool{"Safari": true, "Chrome/Default": true}))
	_, err := store.RecordSourceRuns(ctx, ranAt, []storage.SourceRun{
		{Source: "Safari", Status: storage.StatusError, Kind: "permission", Error: "denied"},
	})
	require.NoError(t, err)

	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "1.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(ctx, cfg, store, nil))
	})

	var result statusJSON
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), &result), "output should be valid JSON: %s", output)
	assert.Equal(t, "1.0.0", result.Version)
	assert.Equal(t, ranAt.Format(time.RFC3339), result.LastRun)
	assert.Equal(t, "weekly", result.Mode)
	assert.Equal(t, cfg.Output.Dir, result.OutputDir)
	assert.Equal(t, filepath.Join(cfg.Storage.Path, "state.db"), result.DatabasePath)
	assert.Equal(t, 30, result.RetentionDays)
	assert.False(t, result.PermissionError)
	assert.Equal(t, []string{"Chrome/Default", "Safari"}, result.Notified)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Safari", result.Sources[0].Name)
	assert.Equal(t, "error", result.Sources[0].Status)
	assert.Equal(t, "permission", result.Sources[0].Kind)
}

func TestStatus_JSONEmptyListsNotNull(t *testing.T) {
	store := openTestStore(t)
	cfg := testConfig(t)

	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), cfg, store, nil))
	})

	assert.Contains(t, output, `"sources": []`)
	assert.Contains(t, output, `"notified": []`)
	assert.NotContains(t, output, `"last_run"`)
}

func TestStatus_UnreadableLastRunIsReported(t *testing.T) {
	db, store := openTestDBStore(t)
	cfg := testConfig(t)
	_, err := db.Exec(`INSERT INTO run_state (key, value) VALUES ('last_run', 'garbage')`)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), cfg, store, zap.New(core).Sugar()))
	})

	assert.Contains(t, output, "Last run:      unreadable")
	assert.Equal(t, 1, logs.FilterMessage("last run unreadable").Len())
}

func TestStatus_UnreadableLastRunJSON(t *testing.T) {
	db, store := openTestDBStore(t)
	cfg := testConfig(t)
	_, err := db.Exec(`INSERT INTO run_state (key, value) VALUES ('last_run', 'garbage')`)
	require.NoError(t, err)

	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), cfg, store, nil))
	})

	var result statusJSON
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), &result))
	assert.True(t, result.LastRunUnread)
	assert.Empty(t, result.LastRun)
}

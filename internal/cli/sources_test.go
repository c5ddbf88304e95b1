package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/runnerr0/histdigest/internal/browser"
	"github.com/runnerr0/histdigest/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSources_Table(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "History.db")
	require.NoError(t, os.WriteFile(present, nil, 0o644))

	providers := []history.Provider{
		browser.NewSafariProvider(present),
		browser.NewChromeProvider(filepath.Join(dir, "Default")),
	}

	cmd := &SourcesCommand{globals: &GlobalFlags{}, version: "test"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithProviders(providers))
	})

	assert.Contains(t, output, "Source")
	assert.Contains(t, output, "Safari")
	assert.Contains(t, output, "Chrome/Default")
	assert.Contains(t, output, "yes")
	assert.Contains(t, output, "no")
}

func TestSources_NoneEnabled(t *testing.T) {
	cmd := &SourcesCommand{globals: &GlobalFlags{}, version: "test"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithProviders(nil))
	})
	assert.Contains(t, output, "No history sources enabled.")
}

func TestSources_JSON(t *testing.T) {
	dir := t.TempDir()
	chromeDir := filepath.Join(dir, "Profile 1")
	require.NoError(t, os.MkdirAll(chromeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chromeDir, browser.ChromeHistoryFile), nil, 0o644))

	providers := []history.Provider{
		browser.NewChromeProvider(chromeDir),
		&stubProvider{name: "Custom"},
	}

	cmd := &SourcesCommand{globals: &GlobalFlags{JSON: true}, version: "test"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithProviders(providers))
	})

	var result []sourceJSON
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), &result), "output should be valid JSON: %s", output)
	require.Len(t, result, 2)
	assert.Equal(t, "Chrome/Profile 1", result[0].Name)
	assert.Equal(t, filepath.Join(chromeDir, browser.ChromeHistoryFile), result[0].Path)
	assert.True(t, result[0].Exists)
	assert.Equal(t, "Custom", result[1].Name)
	assert.Empty(t, result[1].Path)
	assert.False(t, result[1].Exists)
}

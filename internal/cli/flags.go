package cli

import (
	"io"
	"time"

	"github.com/runnerr0/histdigest/internal/storage"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// CaptureCommand runs one incremental capture.
type CaptureCommand struct {
	Mode     string `long:"mode" description:"Grouping mode: daily | weekly (overrides config)"`
	Output   string `long:"output" description:"Digest output directory (overrides config)"`
	NoChrome bool   `long:"no-chrome" description:"Skip Chrome profiles"`
	NoSafari bool   `long:"no-safari" description:"Skip Safari"`
	NoNotify bool   `long:"no-notify" description:"Never show desktop notifications"`

	globals *GlobalFlags
	version string
	now     func() time.Time // injectable for testing
}

// StatusCommand shows the last run and per-source results.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// SourcesCommand lists discovered history providers.
type SourcesCommand struct {
	globals *GlobalFlags
	version string
}

// PruneCommand deletes old run history.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`
	Force     bool   `long:"force" description:"Skip confirmation prompt"`

	globals       *GlobalFlags
	version       string
	store         storage.Store // injectable for testing; nil means open from config
	retentionDays int
	stdin         io.Reader
}

// ResetCommand forgets last_run and the notified set so the next capture
// backfills all history.
type ResetCommand struct {
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	store   storage.Store // injectable for testing; nil means open from config
	stdin   io.Reader
}

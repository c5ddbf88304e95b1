package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/runnerr0/histdigest/internal/alert"
	"github.com/runnerr0/histdigest/internal/config"
	"github.com/runnerr0/histdigest/internal/storage"
	"go.uber.org/zap"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version         string             `json:"version"`
	LastRun         string             `json:"last_run,omitempty"`
	LastRunUnread   bool               `json:"last_run_unreadable,omitempty"`
	OutputDir       string             `json:"output_dir"`
	Mode            string             `json:"mode"`
	DatabasePath    string             `json:"database_path"`
	RetentionDays   int                `json:"retention_days"`
	PermissionError bool               `json:"permission_error"`
	Notified        []string           `json:"notified"`
	Sources         []sourceStatusJSON `json:"sources"`
}

type sourceStatusJSON struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Visits int    `json:"visits"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
	RanAt  string `json:"ran_at"`
}

// statusInfo collects everything the status command reports.
type statusInfo struct {
	lastRun         *time.Time
	lastRunUnread   bool
	outputDir       string
	dbPath          string
	permissionError bool
	notified        []string
	runs            []storage.SourceRun
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, c.globals)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return c.executeWithStore(context.Background(), cfg, store, log)
}

// executeWithStore runs status against a provided store (for testing).
// Unreadable run state is reported, not returned.
func (c *StatusCommand) executeWithStore(ctx context.Context, cfg *config.Config, store storage.Store, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	var info statusInfo
	var err error

	if info.outputDir, err = cfg.OutputDir(); err != nil {
		return err
	}
	if info.dbPath, err = cfg.StateDBPath(); err != nil {
		return err
	}
	if info.lastRun, err = store.LoadLastRun(ctx); err != nil {
		log.Warnw("last run unreadable", "error", err)
		info.lastRun, info.lastRunUnread = nil, true
	}
	if info.runs, err = store.LatestRuns(ctx); err != nil {
		return err
	}

	notified, err := store.LoadNotified(ctx)
	if err != nil {
		log.Warnw("notification state unreadable", "error", err)
	}
	for name := range notified {
		info.notified = append(info.notified, name)
	}
	sort.Strings(info.notified)

	if _, err := os.Stat(filepath.Join(info.outputDir, alert.IndicatorFileName)); err == nil {
		info.permissionError = true
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(cfg, info)
	}
	c.printStatusHuman(cfg, info)
	return nil
}

func (c *StatusCommand) printStatusHuman(cfg *config.Config, info statusInfo) {
	fmt.Println("histdigest status")
	fmt.Println("=================")
	fmt.Printf("Version:       %s\n", c.version)
	if info.lastRunUnread {
		fmt.Println("Last run:      unreadable (next capture backfills)")
	} else {
		fmt.Printf("Last run:      %s\n", formatTime(info.lastRun))
	}
	if info.lastRun != nil {
		fmt.Printf("               (%s ago)\n", formatDurationHuman(time.Since(*info.lastRun)))
	}
	fmt.Printf("Output:        %s (%s)\n", info.outputDir, cfg.Output.Mode)
	fmt.Printf("State:         %s\n", info.dbPath)
	fmt.Printf("Retention:     %d days\n", cfg.Storage.RunHistoryDays)
	fmt.Println()

	if len(info.runs) == 0 {
		fmt.Println("No runs recorded yet.")
	} else {
		data := pterm.TableData{{"Source", "Status", "Visits", "Kind", "Error"}}
		for _, r := range info.runs {
			data = append(data, []string{r.Source, r.Status, fmt.Sprintf("%d", r.Visits), r.Kind, r.Error})
		}
		if table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender(); err == nil {
			fmt.Println(table)
		}
	}

	if info.permissionError {
		fmt.Println()
		fmt.Print(pterm.Warning.Sprintfln("permission errors outstanding; see %s",
			filepath.Join(info.outputDir, alert.IndicatorFileName)))
	}
}

func (c *StatusCommand) printStatusJSON(cfg *config.Config, info statusInfo) error {
	out := statusJSON{
		Version:         c.version,
		OutputDir:       info.outputDir,
		Mode:            cfg.Output.Mode,
		DatabasePath:    info.dbPath,
		RetentionDays:   cfg.Storage.RunHistoryDays,
		LastRunUnread:   info.lastRunUnread,
		PermissionError: info.permissionError,
		Notified:        append([]string{}, info.notified...),
		Sources:         make([]sourceStatusJSON, len(info.runs)),
	}
	if info.lastRun != nil {
		out.LastRun = info.lastRun.Format(time.RFC3339)
	}
	for i, r := range info.runs {
		out.Sources[i] = sourceStatusJSON{
			Name:   r.Source,
			Status: r.Status,
			Visits: r.Visits,
			Kind:   r.Kind,
			Error:  r.Error,
			RanAt:  r.RanAt.Format(time.RFC3339),
		}
	}
	return printJSON(out)
}

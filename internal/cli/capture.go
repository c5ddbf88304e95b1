package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/runnerr0/histdigest/internal/alert"
	"github.com/runnerr0/histdigest/internal/browser"
	"github.com/runnerr0/histdigest/internal/capture"
	"github.com/runnerr0/histdigest/internal/config"
	"github.com/runnerr0/histdigest/internal/digest"
	"github.com/runnerr0/histdigest/internal/history"
	"github.com/runnerr0/histdigest/internal/storage"
	"go.uber.org/zap"
)

// captureJSON is the JSON output structure for the capture command.
type captureJSON struct {
	RunID    string              `json:"run_id,omitempty"`
	RanAt    string              `json:"ran_at"`
	Since    string              `json:"since,omitempty"`
	Backfill bool                `json:"backfill"`
	Written  []string            `json:"written"`
	Kept     []string            `json:"kept"`
	Sources  []captureSourceJSON `json:"sources"`
	Notified []string            `json:"notified"`
}

type captureSourceJSON struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Visits int    `json:"visits"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Execute implements the go-flags Commander interface for CaptureCommand.
func (c *CaptureCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if err := c.applyOverrides(cfg); err != nil {
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

	providers, err := browser.Discover(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.executeWithStore(ctx, cfg, store, providers, log)
}

// applyOverrides folds command flags into cfg and revalidates it.
func (c *CaptureCommand) applyOverrides(cfg *config.Config) error {
	if c.Mode != "" {
		cfg.Output.Mode = c.Mode
	}
	if c.Output != "" {
		cfg.Output.Dir = c.Output
	}
	if c.NoChrome {
		cfg.Sources.Chrome.Enabled = false
	}
	if c.NoSafari {
		cfg.Sources.Safari.Enabled = false
	}
	if c.NoNotify {
		cfg.Notifications.Enabled = false
	}
	return cfg.Validate()
}

// executeWithStore runs a capture against a provided store and providers (for testing).
func (c *CaptureCommand) executeWithStore(ctx context.Context, cfg *config.Config, store storage.Store, providers []history.Provider, log *zap.SugaredLogger) error {
	mode, err := digest.ParseMode(cfg.Output.Mode)
	if err != nil {
		return err
	}
	outDir, err := cfg.OutputDir()
	if err != nil {
		return err
	}

	deny := cfg.Denylist()
	normalizer, err := history.NewNormalizer(history.NormalizerOptions{
		ExcludedPrefixes: cfg.Capture.ExcludedPrefixes,
		TrackingKeys:     cfg.TrackingKeys(),
		DenyDomains:      deny.Domains,
		DenyRegex:        deny.Regex,
		Logger:           log,
	})
	if err != nil {
		return err
	}

	var notifier alert.Notifier
	if cfg.Notifications.Enabled {
		notifier = alert.DefaultNotifier(log)
	}
	tracker := alert.NewTracker(store, notifier, alert.NewFileIndicator(outDir), cfg.Notifications.Title, log)

	engine := capture.New(capture.Deps{
		Providers:  providers,
		Normalizer: normalizer,
		Sink:       digest.NewFileSink(outDir),
		State:      store,
		Runs:       store,
		Tracker:    tracker,
		Log:        log,
	}, capture.Options{
		Mode:            mode,
		ProviderTimeout: cfg.ProviderTimeout(),
		Render:          digest.RenderOptions{DomainSummary: cfg.Output.DomainSummary},
		StatusPath:      filepath.Join(outDir, capture.StatusFileName),
		Now:             c.now,
	})

	rep, err := engine.Run(ctx)
	if err != nil {
		return errors.Wrap(err, "capture failed")
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(captureReportJSON(rep))
	}
	c.printCaptureHuman(rep, outDir)
	return nil
}

func captureReportJSON(rep *capture.Report) captureJSON {
	out := captureJSON{
		RunID:    rep.RunID,
		RanAt:    rep.RanAt.Format(time.RFC3339),
		Backfill: rep.Window.Backfill(),
		Written:  append([]string{}, rep.Written...),
		Kept:     append([]string{}, rep.Kept...),
		Sources:  make([]captureSourceJSON, len(rep.Outcomes)),
		Notified: append([]string{}, rep.Alerts.Notified...),
	}
	if rep.Window.Since != nil {
		out.Since = rep.Window.Since.Format(time.RFC3339)
	}
	for i, o := range rep.Outcomes {
		s := captureSourceJSON{Name: o.Provider, Status: storage.StatusOK, Visits: o.Visits}
		if o.Err != nil {
			s.Status = storage.StatusError
			s.Kind = history.KindOf(o.Err).String()
			s.Error = o.Err.Error()
		}
		out.Sources[i] = s
	}
	return out
}

func (c *CaptureCommand) printCaptureHuman(rep *capture.Report, outDir string) {
	window := "full backfill"
	if rep.Window.Since != nil {
		window = "since " + formatTime(rep.Window.Since)
	}
	fmt.Printf("Capture %s (%s)\n", formatTime(&rep.RanAt), window)
	fmt.Printf("Output:   %s\n", outDir)
	fmt.Printf("Written:  %d\n", len(rep.Written))
	for _, key := range rep.Written {
		fmt.Printf("  %s.md\n", key)
	}
	if len(rep.Kept) > 0 {
		fmt.Printf("Kept:     %d closed\n", len(rep.Kept))
	}
	fmt.Println()

	if len(rep.Outcomes) == 0 {
		fmt.Println("No history sources found.")
		return
	}
	data := pterm.TableData{{"Source", "Status", "Visits", "Error"}}
	for _, o := range rep.Outcomes {
		status, errText := storage.StatusOK, ""
		if o.Err != nil {
			status, errText = storage.StatusError, o.Err.Error()
		}
		data = append(data, []string{o.Provider, status, fmt.Sprintf("%d", o.Visits), errText})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err == nil {
		fmt.Println(table)
	}

	for _, o := range rep.Outcomes {
		if history.IsPermission(o.Err) {
			fmt.Print(pterm.Warning.Sprintfln("%s is blocked by OS permissions; see %s", o.Provider, alert.IndicatorFileName))
		}
	}
}

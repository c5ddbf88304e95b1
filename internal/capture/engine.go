// Package capture runs one incremental capture: plan the scan window, read
// every history provider, regroup visits into calendar buckets, rewrite the
// documents the regeneration policy allows, and update run state.
package capture

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/alert"
	"github.com/runnerr0/histdigest/internal/digest"
	"github.com/runnerr0/histdigest/internal/history"
	"github.com/runnerr0/histdigest/internal/storage"
	"go.uber.org/zap"
)

// DefaultProviderTimeout bounds one provider fetch when none is configured.
const DefaultProviderTimeout = 30 * time.Second

// DigestSink stores rendered bucket documents by key.
type DigestSink interface {
	Exists(key string) (bool, error)
	Write(key string, content []byte) error
}

// RunStateStore persists the time of the last completed run.
type RunStateStore interface {
	LoadLastRun(ctx context.Context) (*time.Time, error)
	SaveLastRun(ctx context.Context, t time.Time) error
}

// RunRecorder keeps per-provider run history.
type RunRecorder interface {
	RecordSourceRuns(ctx context.Context, ranAt time.Time, runs []storage.SourceRun) (string, error)
}

// Deps are the collaborators of an Engine. Runs, Tracker and Log may be
// nil.
type Deps struct {
	Providers  []history.Provider
	Normalizer *history.Normalizer
	Sink       DigestSink
	State      RunStateStore
	Runs       RunRecorder
	Tracker    *alert.Tracker
	Log        *zap.SugaredLogger
}

// Options tune a run.
type Options struct {
	Mode            digest.Mode
	ProviderTimeout time.Duration
	Render          digest.RenderOptions
	// StatusPath is where the JSON status file goes; empty disables it.
	StatusPath string
	Now        func() time.Time
}

// ProviderOutcome is one provider's result for a run.
type ProviderOutcome struct {
	Provider string
	Visits   int
	Err      error
}

// Report describes a completed run.
type Report struct {
	RunID    string
	RanAt    time.Time
	Window   Window
	Outcomes []ProviderOutcome
	Written  []string // bucket keys rewritten
	Kept     []string // closed buckets left as they were
	Alerts   alert.Result
}

// Engine executes capture runs.
type Engine struct {
	deps Deps
	opts Options
	log  *zap.SugaredLogger
}

// New wires an Engine, filling defaults for mode, timeout and clock.
func New(deps Deps, opts Options) *Engine {
	if opts.Mode == "" {
		opts.Mode = digest.Daily
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = DefaultProviderTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{deps: deps, opts: opts, log: log}
}

// Run performs one capture. Provider failures never fail the run; a digest
// sink failure does, and then last_run is left unchanged.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	now := e.opts.Now()
	rep := &Report{RanAt: now}

	lastRun, err := e.deps.State.LoadLastRun(ctx)
	if err != nil {
		e.log.Warnw("last run unreadable, backfilling", "error", err)
		lastRun = nil
	}
	rep.Window = PlanWindow(lastRun, now, e.opts.Mode)
	if rep.Window.Backfill() {
		e.log.Infow("starting capture", "window", "full backfill", "mode", e.opts.Mode)
	} else {
		e.log.Infow("starting capture", "since", rep.Window.Since.Format(time.RFC3339), "mode", e.opts.Mode)
	}

	var visits []history.Visit
	for _, p := range e.deps.Providers {
		got, outcome := e.fetch(ctx, p, rep.Window)
		visits = append(visits, got...)
		rep.Outcomes = append(rep.Outcomes, outcome)
	}
	if err := ctx.Err(); err != nil {
		return rep, errors.Wrap(err, "capture interrupted")
	}

	if e.deps.Tracker != nil {
		rep.Alerts = e.deps.Tracker.Evaluate(ctx, alertOutcomes(rep.Outcomes))
	}
	if e.opts.StatusPath != "" {
		if err := WriteStatus(e.opts.StatusPath, BuildStatus(now, rep.Outcomes)); err != nil {
			e.log.Warnw("status file not written", "path", e.opts.StatusPath, "error", err)
		}
	}

	for _, b := range digest.Group(visits, e.opts.Mode) {
		exists, err := e.deps.Sink.Exists(b.Key)
		if err != nil {
			return rep, errors.Wrapf(err, "check digest %s", b.Key)
		}
		if !e.opts.Mode.ShouldWrite(b.Key, now, exists) {
			rep.Kept = append(rep.Kept, b.Key)
			continue
		}
		if err := e.deps.Sink.Write(b.Key, digest.Render(b, e.opts.Mode, e.opts.Render)); err != nil {
			return rep, errors.Wrapf(err, "write digest %s", b.Key)
		}
		rep.Written = append(rep.Written, b.Key)
		e.log.Debugw("digest written", "key", b.Key, "visits", len(b.Visits))
	}

	if e.deps.Runs != nil {
		id, err := e.deps.Runs.RecordSourceRuns(ctx, now, sourceRuns(rep.Outcomes))
		if err != nil {
			e.log.Warnw("run history not recorded", "error", err)
		}
		rep.RunID = id
	}

	if err := e.deps.State.SaveLastRun(ctx, now); err != nil {
		e.log.Warnw("last run not saved", "error", err)
	}

	e.log.Infow("capture complete",
		"visits", len(visits),
		"written", len(rep.Written),
		"kept", len(rep.Kept),
		"failed_sources", failedCount(rep.Outcomes),
	)
	return rep, nil
}

// fetch reads one provider under its own deadline and normalizes the rows.
func (e *Engine) fetch(ctx context.Context, p history.Provider, w Window) ([]history.Visit, ProviderOutcome) {
	name := p.Name()
	pctx, cancel := context.WithTimeout(ctx, e.opts.ProviderTimeout)
	defer cancel()

	raws, err := p.Fetch(pctx, w.Since)
	if err != nil {
		var pe *history.ProviderError
		if !errors.As(err, &pe) {
			err = history.NewProviderError(name, history.KindOf(err), err)
		}
		e.log.Warnw("history source failed", "source", name, "kind", history.KindOf(err).String(), "error", err)
		return nil, ProviderOutcome{Provider: name, Err: err}
	}

	visits := e.deps.Normalizer.NormalizeAll(raws, name)
	e.log.Debugw("history source read", "source", name, "rows", len(raws), "visits", len(visits))
	return visits, ProviderOutcome{Provider: name, Visits: len(visits)}
}

func alertOutcomes(outcomes []ProviderOutcome) []alert.Outcome {
	out := make([]alert.Outcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = alert.Outcome{Source: o.Provider, Err: o.Err}
	}
	return out
}

func sourceRuns(outcomes []ProviderOutcome) []storage.SourceRun {
	runs := make([]storage.SourceRun, len(outcomes))
	for i, o := range outcomes {
		r := storage.SourceRun{Source: o.Provider, Status: storage.StatusOK, Visits: o.Visits}
		if o.Err != nil {
			r.Status = storage.StatusError
			r.Kind = history.KindOf(o.Err).String()
			r.Error = causeText(o.Err)
		}
		runs[i] = r
	}
	return runs
}

func failedCount(outcomes []ProviderOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

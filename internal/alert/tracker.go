// Package alert tracks failing history providers across runs, notifies the
// user once per unresolved permission problem, and maintains a visible
// indicator file while any provider is blocked.
package alert

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/history"
	"go.uber.org/zap"
)

// State is a provider's position in the notification state machine.
type State int

const (
	Healthy State = iota
	ErroredUnnotified
	ErroredNotified
)

func (s State) String() string {
	switch s {
	case ErroredUnnotified:
		return "errored_unnotified"
	case ErroredNotified:
		return "errored_notified"
	default:
		return "healthy"
	}
}

// Outcome is one provider's result for the current run.
type Outcome struct {
	Source string
	Err    error
}

// NotifiedStore persists the set of providers already notified about an
// unresolved permission error.
type NotifiedStore interface {
	LoadNotified(ctx context.Context) (map[string]bool, error)
	SaveNotified(ctx context.Context, notified map[string]bool) error
}

// Result summarizes one evaluation.
type Result struct {
	States   map[string]State
	Notified []string // providers notified during this run
	Messages []string // current errors shown in the indicator
}

// Tracker runs the per-run transitions and their side effects.
type Tracker struct {
	store     NotifiedStore
	notifier  Notifier
	notify    bool
	indicator Indicator
	title     string
	log       *zap.SugaredLogger
}

// NewTracker wires a Tracker. A nil notifier disables notifications; while
// disabled, permission errors stay unnotified so they are announced once
// notifications are turned back on.
func NewTracker(store NotifiedStore, notifier Notifier, indicator Indicator, title string, log *zap.SugaredLogger) *Tracker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Tracker{
		store:     store,
		notifier:  notifier,
		notify:    notifier != nil,
		indicator: indicator,
		title:     title,
		log:       log,
	}
}

// Evaluate applies this run's outcomes:
//
//   - success clears a provider's notified flag;
//   - a first permission error notifies once and sets the flag;
//   - a repeated permission error stays silent;
//   - with notifications disabled, a new permission error stays unnotified;
//   - other errors leave the flag as it was.
//
// Providers missing from outcomes lose their flag. Persistence failures are
// logged and treated as an empty set; they never fail the run.
func (t *Tracker) Evaluate(ctx context.Context, outcomes []Outcome) Result {
	prev, err := t.store.LoadNotified(ctx)
	if err != nil {
		t.log.Warnw("notification state unreadable, starting empty", "error", err)
		prev = map[string]bool{}
	}

	res := Result{States: make(map[string]State, len(outcomes))}
	next := make(map[string]bool)

	for _, o := range outcomes {
		switch {
		case o.Err == nil:
			if prev[o.Source] {
				t.log.Infow("provider recovered", "source", o.Source)
			}
			res.States[o.Source] = Healthy

		case history.IsPermission(o.Err):
			res.Messages = append(res.Messages, describe(o))
			switch {
			case prev[o.Source]:
				res.States[o.Source] = ErroredNotified
				next[o.Source] = true
			case t.notify:
				t.notifier.Notify(t.title, fmt.Sprintf("%s access blocked - grant Full Disk Access", o.Source))
				res.Notified = append(res.Notified, o.Source)
				res.States[o.Source] = ErroredNotified
				next[o.Source] = true
			default:
				res.States[o.Source] = ErroredUnnotified
			}

		default:
			if prev[o.Source] {
				res.States[o.Source] = ErroredNotified
				next[o.Source] = true
				res.Messages = append(res.Messages, describe(o))
			} else {
				res.States[o.Source] = Healthy
			}
		}
	}

	if err := t.store.SaveNotified(ctx, next); err != nil {
		t.log.Warnw("save notification state", "error", err)
	}
	t.updateIndicator(res.Messages)
	return res
}

func (t *Tracker) updateIndicator(messages []string) {
	if t.indicator == nil {
		return
	}
	if len(messages) > 0 {
		if err := t.indicator.Write(messages); err != nil {
			t.log.Warnw("write error indicator", "error", err)
		}
		return
	}
	if err := t.indicator.Remove(); err != nil {
		t.log.Warnw("remove error indicator", "error", err)
	}
}

// describe renders "source: cause" plus any remediation hints attached to
// the error.
func describe(o Outcome) string {
	msg := fmt.Sprintf("%s: %s", o.Source, causeOf(o.Err))
	hints := errors.GetAllHints(o.Err)
	if len(hints) == 0 {
		return msg
	}
	sort.Strings(hints)
	return msg + " (" + strings.Join(hints, "; ") + ")"
}

func causeOf(err error) string {
	var pe *history.ProviderError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

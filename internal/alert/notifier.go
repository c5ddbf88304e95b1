package alert

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers a desktop notification. Implementations are best
// effort: they must not block for long and never fail the caller.
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// OSNotifier shows a macOS notification through osascript.
type OSNotifier struct {
	Timeout time.Duration
	Log     *zap.SugaredLogger

	run func(ctx context.Context, name string, args ...string) error
}

// Notify fires the notification and swallows any failure.
func (n *OSNotifier) Notify(title, message string) {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	run := n.run
	if run == nil {
		run = runCommand
	}
	script := `display notification "` + appleScriptEscape(message) + `" with title "` + appleScriptEscape(title) + `"`
	if err := run(ctx, "osascript", "-e", script); err != nil && n.Log != nil {
		n.Log.Debugw("notification not delivered", "error", err)
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func appleScriptEscape(s string) string {
	return appleScriptEscaper.Replace(s)
}

// LogNotifier writes notifications to the log on platforms without a
// notification center binding.
type LogNotifier struct {
	Log *zap.SugaredLogger
}

func (n *LogNotifier) Notify(title, message string) {
	if n.Log != nil {
		n.Log.Warnw(message, "notification", title)
	}
}

// NewNotifier picks the notifier for goos.
func NewNotifier(goos string, log *zap.SugaredLogger) Notifier {
	if goos == "darwin" {
		return &OSNotifier{Timeout: 5 * time.Second, Log: log}
	}
	return &LogNotifier{Log: log}
}

// DefaultNotifier returns the notifier for the running platform.
func DefaultNotifier(log *zap.SugaredLogger) Notifier {
	return NewNotifier(runtime.GOOS, log)
}

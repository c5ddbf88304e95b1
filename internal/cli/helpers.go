package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/config"
	"github.com/runnerr0/histdigest/internal/logging"
	"github.com/runnerr0/histdigest/internal/storage"
	"go.uber.org/zap"
)

// loadConfig loads --config when given, else the default path, writing
// defaults on first use.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		path, err := config.ExpandPath(globals.Config)
		if err != nil {
			return nil, err
		}
		return config.LoadOrCreateAt(path)
	}
	return config.LoadOrCreate()
}

// newLogger builds the command logger. --verbose forces debug level and
// the error log lives in the output directory unless configured absolute.
func newLogger(cfg *config.Config, globals *GlobalFlags) (*zap.SugaredLogger, func(), error) {
	level := cfg.Logging.Level
	if globals != nil && globals.Verbose {
		level = "debug"
	}

	var errorLog string
	if cfg.Logging.File != "" {
		p, err := config.ExpandPath(cfg.Logging.File)
		if err != nil {
			return nil, func() {}, err
		}
		if !filepath.IsAbs(p) {
			dir, err := cfg.OutputDir()
			if err != nil {
				return nil, func() {}, err
			}
			p = filepath.Join(dir, p)
		}
		errorLog = p
	}

	return logging.New(logging.Options{
		Level:        level,
		JSON:         cfg.Logging.JSON,
		ErrorLogPath: errorLog,
	})
}

// openStore opens the configured state database.
func openStore(cfg *config.Config, log *zap.SugaredLogger) (*storage.SQLiteStore, error) {
	path, err := cfg.StateDBPath()
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenStore(path, log)
	if err != nil {
		return nil, errors.Wrapf(err, "open state database %s", path)
	}
	return store, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confirm prints prompt and reads one line from in.
func confirm(in io.Reader, prompt string) (string, bool) {
	if in == nil {
		in = os.Stdin
	}
	fmt.Print(prompt)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// formatTime renders an optional timestamp for humans.
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

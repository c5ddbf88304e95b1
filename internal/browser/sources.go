package browser

import (
	"context"
	"time"

	"github.com/runnerr0/histdigest/internal/config"
	"github.com/runnerr0/histdigest/internal/history"
	"go.uber.org/zap"
)

// Located is implemented by providers backed by a database file.
type Located interface {
	DatabasePath() string
}

// Discover builds the provider list for one run from cfg. Chrome profiles
// are enumerated on each call; a Chrome directory that cannot be listed
// becomes a single failing provider so the error reaches the tracker.
func Discover(cfg *config.Config, log *zap.SugaredLogger) ([]history.Provider, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	var out []history.Provider

	if cfg.Sources.Chrome.Enabled {
		base, err := config.ExpandPath(cfg.Sources.Chrome.BaseDir)
		if err != nil {
			return nil, err
		}
		profiles, err := DiscoverChrome(base)
		if err != nil {
			log.Warnw("chrome profiles unavailable", "dir", base, "error", err)
			out = append(out, &brokenProvider{name: "Chrome", path: base, err: classify("Chrome", err)})
		}
		for _, p := range profiles {
			out = append(out, p)
		}
		log.Debugw("chrome profiles discovered", "dir", base, "count", len(profiles))
	}

	if cfg.Sources.Safari.Enabled {
		path, err := config.ExpandPath(cfg.Sources.Safari.HistoryPath)
		if err != nil {
			return nil, err
		}
		out = append(out, NewSafariProvider(path))
	}
	return out, nil
}

// brokenProvider reports a discovery failure as a fetch failure.
type brokenProvider struct {
	name string
	path string
	err  error
}

func (b *brokenProvider) Name() string         { return b.name }
func (b *brokenProvider) DatabasePath() string { return b.path }

func (b *brokenProvider) Fetch(context.Context, *time.Time) ([]history.RawVisit, error) {
	return nil, b.err
}

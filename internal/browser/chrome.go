package browser

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/runnerr0/histdigest/internal/history"
)

// ChromeHistoryFile is the per-profile history database name.
const ChromeHistoryFile = "History"

const chromeQuery = `
	SELECT urls.url, urls.title, visits.visit_time
	FROM visits
	JOIN urls ON visits.url = urls.id`

// ChromeProvider reads one Chrome profile.
type ChromeProvider struct {
	Profile string
	Path    string
}

// NewChromeProvider returns a provider for the profile directory dir.
func NewChromeProvider(dir string) *ChromeProvider {
	return &ChromeProvider{
		Profile: filepath.Base(dir),
		Path:    filepath.Join(dir, ChromeHistoryFile),
	}
}

// Name is "Chrome/<profile>".
func (p *ChromeProvider) Name() string { return "Chrome/" + p.Profile }

// DatabasePath is the live History file.
func (p *ChromeProvider) DatabasePath() string { return p.Path }

// Fetch returns visits at or after since in ascending visit order.
func (p *ChromeProvider) Fetch(ctx context.Context, since *time.Time) ([]history.RawVisit, error) {
	query := chromeQuery
	var args []any
	if since != nil {
		query += " WHERE visits.visit_time >= ?"
		args = append(args, int64(history.WebKitSince(*since)))
	}
	query += " ORDER BY visits.visit_time ASC"

	return readVisits(ctx, p.Name(), p.Path, query, args, func(rows *sql.Rows) (history.RawVisit, error) {
		var (
			url       string
			title     sql.NullString
			visitTime int64
		)
		if err := rows.Scan(&url, &title, &visitTime); err != nil {
			return history.RawVisit{}, err
		}
		return history.RawVisit{
			URL:     url,
			Title:   title.String,
			Visited: history.WebKitTime(visitTime),
			Source:  p.Profile,
		}, nil
	})
}

// DiscoverChrome lists every profile directory under base that holds a
// History database. A missing base yields no profiles.
func DiscoverChrome(base string) ([]*ChromeProvider, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "list chrome profiles in %s", base)
	}

	var out []*ChromeProvider
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(base, e.Name())
		if _, err := os.Stat(filepath.Join(dir, ChromeHistoryFile)); err != nil {
			continue
		}
		out = append(out, NewChromeProvider(dir))
	}
	return out, nil
}

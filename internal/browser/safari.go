package browser

import (
	"context"
	"database/sql"
	"time"

	"github.com/runnerr0/histdigest/internal/history"
)

// SafariName is the provider and source name for Safari.
const SafariName = "Safari"

// Titles live on history_visits, not history_items.
const safariQuery = `
	SELECT history_items.url, history_visits.title, history_visits.visit_time
	FROM history_visits
	JOIN history_items ON history_visits.history_item = history_items.id`

// SafariProvider reads Safari's History.db.
type SafariProvider struct {
	Path string
}

func NewSafariProvider(path string) *SafariProvider {
	return &SafariProvider{Path: path}
}

func (p *SafariProvider) Name() string { return SafariName }

func (p *SafariProvider) DatabasePath() string { return p.Path }

// Fetch returns visits at or after since in ascending visit order.
func (p *SafariProvider) Fetch(ctx context.Context, since *time.Time) ([]history.RawVisit, error) {
	query := safariQuery
	var args []any
	if since != nil {
		query += " WHERE history_visits.visit_time >= ?"
		args = append(args, float64(history.MacAbsoluteSince(*since)))
	}
	query += " ORDER BY history_visits.visit_time ASC"

	return readVisits(ctx, p.Name(), p.Path, query, args, func(rows *sql.Rows) (history.RawVisit, error) {
		var (
			url       string
			title     sql.NullString
			visitTime float64
		)
		if err := rows.Scan(&url, &title, &visitTime); err != nil {
			return history.RawVisit{}, err
		}
		return history.RawVisit{
			URL:     url,
			Title:   title.String,
			Visited: history.MacAbsoluteTime(visitTime),
			Source:  SafariName,
		}, nil
	})
}

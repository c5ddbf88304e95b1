package digest

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/histdigest/internal/history"
)

// TopDomainLimit is the number of domains listed in a digest summary.
const TopDomainLimit = 10

// RenderOptions controls optional document sections.
type RenderOptions struct {
	DomainSummary bool
}

// DomainCount pairs a host with its visit count in one bucket.
type DomainCount struct {
	Domain string
	Count  int
}

// Render produces the markdown document for b. Output depends only on the
// bucket contents, so re-rendering the same visits is byte-identical.
func Render(b Bucket, mode Mode, opts RenderOptions) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Browser History: %s\n\n", periodTitle(b.Start, mode))

	if opts.DomainSummary {
		if summary := domainSummary(CountDomains(b.Visits)); summary != "" {
			fmt.Fprintf(&sb, "**Domains:** %s\n\n", summary)
		}
	}

	sb.WriteString("## Visits\n\n")
	var day string
	for _, v := range b.Visits {
		if mode == Weekly {
			if d := v.Timestamp.Local().Format("Monday, January 02"); d != day {
				if day != "" {
					sb.WriteString("\n")
				}
				fmt.Fprintf(&sb, "### %s\n\n", d)
				day = d
			}
		}
		fmt.Fprintf(&sb, "- %s - [%s](%s)\n", v.Timestamp.Local().Format("15:04"), v.Title, v.URL)
	}
	sb.WriteString("\n")

	return []byte(sb.String())
}

func periodTitle(start time.Time, mode Mode) string {
	if mode == Weekly {
		_, week := start.ISOWeek()
		end := start.AddDate(0, 0, 6)
		return fmt.Sprintf("Week %d, %d (%s - %s)",
			week, isoYear(start), start.Format("Jan 02"), end.Format("Jan 02"))
	}
	return start.Format("Monday, January 02, 2006")
}

func isoYear(t time.Time) int {
	y, _ := t.ISOWeek()
	return y
}

// CountDomains counts visits per host, most visited first, ties broken
// alphabetically.
func CountDomains(visits []history.Visit) []DomainCount {
	counts := make(map[string]int)
	for _, v := range visits {
		counts[domainOf(v.URL)]++
	}
	out := make([]DomainCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DomainCount{Domain: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

func domainSummary(counts []DomainCount) string {
	if len(counts) == 0 {
		return ""
	}
	shown := counts
	if len(shown) > TopDomainLimit {
		shown = shown[:TopDomainLimit]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, dc := range shown {
		parts = append(parts, fmt.Sprintf("%s (%d)", dc.Domain, dc.Count))
	}
	if more := len(counts) - len(shown); more > 0 {
		parts = append(parts, fmt.Sprintf("... and %d more", more))
	}
	return strings.Join(parts, ", ")
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

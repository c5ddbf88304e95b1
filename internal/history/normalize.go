package history

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// UntitledTitle replaces empty page titles.
const UntitledTitle = "Untitled"

// ErrExcluded marks a row that is skipped on purpose (internal page,
// extension, local file, denylisted host). It is not a row error.
var ErrExcluded = errors.New("visit excluded")

// NormalizerOptions configures a Normalizer. All fields are read once.
type NormalizerOptions struct {
	ExcludedPrefixes []string
	TrackingKeys     []string
	DenyDomains      []string
	DenyRegex        []string
	Logger           *zap.SugaredLogger
}

// Normalizer converts raw provider rows into Visits.
type Normalizer struct {
	prefixes    []string
	canon       *Canonicalizer
	denyDomains []string
	denyRegex   []*regexp.Regexp
	log         *zap.SugaredLogger
}

// NewNormalizer compiles opts. It fails only on an invalid deny regex.
func NewNormalizer(opts NormalizerOptions) (*Normalizer, error) {
	n := &Normalizer{
		prefixes: append([]string{}, opts.ExcludedPrefixes...),
		canon:    NewCanonicalizer(opts.TrackingKeys),
		log:      opts.Logger,
	}
	if n.log == nil {
		n.log = zap.NewNop().Sugar()
	}
	for _, d := range opts.DenyDomains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "."))
		if d != "" {
			n.denyDomains = append(n.denyDomains, d)
		}
	}
	for _, expr := range opts.DenyRegex {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, errors.Wrapf(err, "compile deny regex %q", expr)
		}
		n.denyRegex = append(n.denyRegex, re)
	}
	return n, nil
}

// Canonicalizer exposes the URL canonicalizer in use.
func (n *Normalizer) Canonicalizer() *Canonicalizer { return n.canon }

// Normalize converts one raw row. It returns ErrExcluded for rows that are
// skipped by rule and a descriptive error for malformed rows.
func (n *Normalizer) Normalize(raw RawVisit, provider string) (Visit, error) {
	if raw.URL == "" {
		return Visit{}, errors.New("empty url")
	}
	for _, p := range n.prefixes {
		if strings.HasPrefix(raw.URL, p) {
			return Visit{}, ErrExcluded
		}
	}
	if n.denied(raw.URL) {
		return Visit{}, ErrExcluded
	}
	if raw.Visited == nil || !raw.Visited.Valid() {
		return Visit{}, errors.Newf("invalid visit time %v for %s", raw.Visited, raw.URL)
	}

	source := raw.Source
	if source == "" {
		source = provider
	}
	return Visit{
		URL:       n.canon.Canonicalize(raw.URL),
		Title:     NormalizeTitle(raw.Title),
		Timestamp: raw.Visited.Time(),
		Source:    source,
	}, nil
}

// NormalizeAll converts a provider batch. Malformed rows are logged and
// dropped; they never fail the batch.
func (n *Normalizer) NormalizeAll(raws []RawVisit, provider string) []Visit {
	visits := make([]Visit, 0, len(raws))
	for _, raw := range raws {
		v, err := n.Normalize(raw, provider)
		if errors.Is(err, ErrExcluded) {
			continue
		}
		if err != nil {
			n.log.Warnw("dropping history row", "source", provider, "error", err)
			continue
		}
		visits = append(visits, v)
	}
	return visits
}

func (n *Normalizer) denied(rawURL string) bool {
	if len(n.denyDomains) == 0 && len(n.denyRegex) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range n.denyDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	for _, re := range n.denyRegex {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}

var titleEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `|`, `\|`)

// NormalizeTitle collapses whitespace and escapes characters that would
// break a markdown link label. Empty titles become UntitledTitle.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return UntitledTitle
	}
	return titleEscaper.Replace(title)
}

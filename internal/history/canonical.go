package history

import (
	"net/url"
	"strings"
)

// Canonicalizer strips tracking query parameters and fragments from URLs.
// It is immutable after construction and safe to share.
type Canonicalizer struct {
	tracking map[string]struct{}
}

// NewCanonicalizer builds a Canonicalizer for the given tracking keys.
// Keys are matched case-insensitively.
func NewCanonicalizer(trackingKeys []string) *Canonicalizer {
	c := &Canonicalizer{tracking: make(map[string]struct{}, len(trackingKeys))}
	for _, k := range trackingKeys {
		c.tracking[strings.ToLower(k)] = struct{}{}
	}
	return c
}

// IsTracking reports whether key is a tracking parameter.
func (c *Canonicalizer) IsTracking(key string) bool {
	if unescaped, err := url.QueryUnescape(key); err == nil {
		key = unescaped
	}
	_, ok := c.tracking[strings.ToLower(key)]
	return ok
}

// Canonicalize removes tracking parameters and the fragment from raw.
// Remaining parameters keep their order, multiplicity and encoding. A URL
// that does not parse is returned unchanged.
func (c *Canonicalizer) Canonicalize(raw string) string {
	if _, err := url.Parse(raw); err != nil {
		return raw
	}

	rest, _, _ := strings.Cut(raw, "#")
	base, query, hasQuery := strings.Cut(rest, "?")
	if !hasQuery {
		return base
	}

	var kept []string
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if c.IsTracking(key) {
			continue
		}
		kept = append(kept, pair)
	}

	if len(kept) == 0 {
		return base
	}
	return base + "?" + strings.Join(kept, "&")
}

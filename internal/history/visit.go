// Package history holds the canonical visit model and the pure steps that
// turn raw browser rows into it: epoch conversion, URL canonicalization,
// normalization, merge and dedup.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// Visit is one canonical page visit. Values are never mutated after
// normalization.
type Visit struct {
	URL       string
	Title     string
	Timestamp time.Time
	Source    string
}

// RawVisit is a row as returned by a history provider, before any cleanup.
type RawVisit struct {
	URL     string
	Title   string
	Visited NativeTime
	Source  string // profile or browser label; empty means the provider name
}

// Provider reads raw visits from one browser profile.
type Provider interface {
	Name() string
	// Fetch returns every visit at or after since, or all history when
	// since is nil. Failures are returned as *ProviderError.
	Fetch(ctx context.Context, since *time.Time) ([]RawVisit, error)
}

// Kind classifies provider failures.
type Kind int

const (
	KindOther Kind = iota
	KindPermission
	KindNotFound
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// ProviderError is the typed failure of one provider for one run.
type ProviderError struct {
	Source string
	Kind   Kind
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err for source. A nil err yields nil.
func NewProviderError(source string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Source: source, Kind: kind, Err: err}
}

// KindOf reports the kind of a provider failure; errors that are not
// *ProviderError count as KindOther.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindOther
}

// IsPermission reports whether err is a permission-class provider failure.
func IsPermission(err error) bool {
	return err != nil && KindOf(err) == KindPermission
}

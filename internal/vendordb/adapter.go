package vendordb

import (
	"context"
	"strings"
)

// Adapter is a single vendor lookup capability. Implementations are stateless
// and never retry internally; retry and backoff policy belongs to the caller.
type Adapter interface {
	// Name identifies the adapter for record sources, logs and metrics.
	Name() string
	// Lookup resolves an OUI to a raw vendor string. Failures are classified
	// into the package error taxonomy.
	Lookup(ctx context.Context, oui string) (string, error)
}

// DefaultPlaceholders are response bodies that look like answers but mean
// "no result". Sources disagree on how they spell a miss, so the set is
// configurable policy, not law.
//
//nolint:gochecknoglobals // default policy table
var DefaultPlaceholders = []string{
	"not found", "n/a", "unknown", "none", "null", "error", "invalid",
}

// ResponseFilter rejects placeholder vendor strings.
type ResponseFilter struct {
	placeholders map[string]struct{}
}

// NewResponseFilter builds a filter from a placeholder list; an empty list
// falls back to DefaultPlaceholders.
func NewResponseFilter(placeholders []string) *ResponseFilter {
	if len(placeholders) == 0 {
		placeholders = DefaultPlaceholders
	}

	set := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		set[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}

	return &ResponseFilter{placeholders: set}
}

// Clean trims a raw adapter response and reports whether it is a usable
// vendor name. Placeholder matches are case-insensitive.
func (f *ResponseFilter) Clean(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}

	if _, bad := f.placeholders[strings.ToLower(v)]; bad {
		return "", false
	}

	return v, true
}

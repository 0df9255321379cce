package domain

import (
	"fmt"
	"time"
)

// Pagination bounds enforced by NewFilter and Validate
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Scope selects which resolution operation a filter is validated for
type Scope string

const (
	ScopePodList Scope = "pod-list"
	ScopePodLogs Scope = "pod-logs"
)

// Filter carries the caller-supplied selection for a log query.
// It is a value type created per request and never mutated; normalization
// returns a new Filter.
type Filter struct {
	Application string
	Cluster     string
	Bundle      string
	Pod         string
	LogLevel    string
	SearchText  string
	StartTime   time.Time
	EndTime     time.Time
	Page        int
	PageSize    int
}

// NewFilter returns a Filter with pagination clamped to valid bounds
func NewFilter(application, cluster, bundle, pod string) Filter {
	return Filter{
		Application: application,
		Cluster:     cluster,
		Bundle:      bundle,
		Pod:         pod,
		Page:        1,
		PageSize:    DefaultPageSize,
	}
}

// WithPage returns a copy with pagination set, clamped to valid bounds
func (f Filter) WithPage(page, pageSize int) Filter {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Validate checks the required fields for the given scope. A failure is
// always ErrInvalidRequest; it must be surfaced to the caller before any
// resolution tier is attempted.
func (f Filter) Validate(scope Scope) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"application", f.Application},
		{"cluster", f.Cluster},
		{"bundle", f.Bundle},
	} {
		if field.value == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidRequest, field.name)
		}
	}
	if scope == ScopePodLogs && f.Pod == "" {
		return fmt.Errorf("%w: missing pod", ErrInvalidRequest)
	}
	if f.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidRequest)
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size must be 1..%d", ErrInvalidRequest, MaxPageSize)
	}
	return nil
}

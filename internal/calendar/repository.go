package calendar

import (
	"context"
	"fmt"
)

// Repository abstracts a concrete calendar backend behind a fixed
// timeframe-query contract. Implementations may return errors freely;
// the Analyzer is the boundary that catches them.
type Repository interface {
	// EventsToday returns today's events.
	EventsToday(ctx context.Context) ([]Event, error)
	// EventsTomorrow returns tomorrow's events.
	EventsTomorrow(ctx context.Context) ([]Event, error)
	// EventsNextDays returns events for the next n days, starting today.
	EventsNextDays(ctx context.Context, n int) ([]Event, error)
	// Health probes backend reachability. A nil error means healthy.
	Health(ctx context.Context) error
	// SourceName identifies the backend for result metadata.
	SourceName() string
}

// FetchError wraps a backend failure with the source and operation that
// produced it.
type FetchError struct {
	Source string
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Analysis is the result of one analyzed calendar query.
type Analysis struct {
	Success       bool           `json:"success"`
	Intent        Intent         `json:"intent"`
	Events        []Event        `json:"events"`
	FormattedText string         `json:"formatted_text"`
	Error         string         `json:"error,omitempty"`
	Metadata      map[string]any `json:"metadata"`
}

// Analyzer orchestrates classification, repository dispatch, and
// formatting for one query. It is independent of which Repository
// implementation is injected and never lets a repository failure
// escape as an error.
type Analyzer struct {
	repo      Repository
	loc       *time.Location
	timezone  string
	formatter *Formatter
	logger    *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewAnalyzer creates an analyzer over the given repository. timezone
// is an IANA zone name used for all date arithmetic and display.
func NewAnalyzer(repo Repository, timezone string, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &Analyzer{
		repo:      repo,
		loc:       loc,
		timezone:  timezone,
		formatter: NewFormatter(loc),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Timezone returns the analyzer's configured IANA zone name.
func (a *Analyzer) Timezone() string {
	return a.timezone
}

// CanHandle reports whether a query looks calendar-related. This uses a
// broader vocabulary than tool-level routing keywords.
func (a *Analyzer) CanHandle(query string) bool {
	return IsCalendarQuery(query)
}

// Analyze classifies the query, fetches matching events, and packages
// the formatted result. Repository failures are converted into a
// failure Analysis; Analyze itself never returns an error.
func (a *Analyzer) Analyze(ctx context.Context, query string) Analysis {
	intent := Classify(query, a.now(), a.loc)
	a.logger.Debug("classified calendar query",
		"type", intent.Type,
		"timeframe", intent.Timeframe,
		"search_term", intent.SearchTerm,
	)

	events, err := a.fetchForIntent(ctx, intent)
	if err != nil {
		a.logger.Error("calendar fetch failed", "type", intent.Type, "error", err)
		return Analysis{
			Success:       false,
			Intent:        intent,
			Error:         fmt.Sprintf("calendar analysis failed: %v", err),
			FormattedText: "Sorry, I wasn't able to check your calendar right now.",
			Metadata: map[string]any{
				"data_source": a.repo.SourceName(),
				"timezone":    a.timezone,
			},
		}
	}

	// Stable sort: events sharing a start time keep repository order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	if intent.SearchTerm != "" {
		events = filterBySummary(events, intent.SearchTerm)
	}
	if intent.Type == NextEvent {
		events = firstAtOrAfter(events, intent.Start)
	}

	return Analysis{
		Success:       true,
		Intent:        intent,
		Events:        events,
		FormattedText: a.formatter.FormatEvents(events, intent),
		Metadata: map[string]any{
			"event_count": len(events),
			"data_source": a.repo.SourceName(),
			"timezone":    a.timezone,
		},
	}
}

// CheckHealth probes the underlying repository.
func (a *Analyzer) CheckHealth(ctx context.Context) error {
	return a.repo.Health(ctx)
}

// SourceName exposes the repository identity for status surfaces.
func (a *Analyzer) SourceName() string {
	return a.repo.SourceName()
}

func (a *Analyzer) fetchForIntent(ctx context.Context, intent Intent) ([]Event, error) {
	switch intent.Type {
	case EventsToday:
		return a.repo.EventsToday(ctx)
	case EventsTomorrow:
		return a.repo.EventsTomorrow(ctx)
	case EventsRange:
		return a.repo.EventsNextDays(ctx, intent.Days)
	case NextEvent:
		return a.repo.EventsNextDays(ctx, intent.Days)
	default:
		// Unknown types cannot occur from Classify; fall back rather
		// than fail if one ever does.
		a.logger.Warn("unknown intent type, defaulting to today", "type", intent.Type)
		return a.repo.EventsToday(ctx)
	}
}

// filterBySummary keeps events whose summary contains term,
// case-insensitive.
func filterBySummary(events []Event, term string) []Event {
	term = strings.ToLower(term)
	var out []Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Summary), term) {
			out = append(out, ev)
		}
	}
	return out
}

// firstAtOrAfter reduces a sorted event list to the first event
// starting at or after t.
func firstAtOrAfter(events []Event, t time.Time) []Event {
	for _, ev := range events {
		if !ev.Start.Before(t) {
			return []Event{ev}
		}
	}
	return nil
}

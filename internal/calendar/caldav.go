package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"github.com/hlab/insight-tools/internal/httpkit"
)

// CalDAVRepository fetches events from a CalDAV collection using
// time-range calendar-query REPORTs.
type CalDAVRepository struct {
	client       *caldav.Client
	calendarPath string
	loc          *time.Location
	logger       *slog.Logger
	now          func() time.Time
}

// NewCalDAVRepository connects to a CalDAV server, discovers the named
// calendar collection, and returns a repository over it. Event times
// are rendered in loc.
func NewCalDAVRepository(endpoint, username, password, calendarName string, loc *time.Location, logger *slog.Logger) (*CalDAVRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := webdav.HTTPClientWithBasicAuth(
		httpkit.NewClient(httpkit.WithTimeout(30*time.Second)),
		username, password,
	)

	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	r := &CalDAVRepository{
		client: client,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}

	path, err := r.findCalendar(context.Background(), calendarName)
	if err != nil {
		return nil, fmt.Errorf("find calendar %q: %w", calendarName, err)
	}
	r.calendarPath = path
	logger.Info("found CalDAV calendar", "name", calendarName, "path", path)

	return r, nil
}

// SourceName identifies this backend in result metadata.
func (r *CalDAVRepository) SourceName() string {
	return "caldav"
}

// EventsToday returns today's events.
func (r *CalDAVRepository) EventsToday(ctx context.Context) ([]Event, error) {
	start, end := dayBounds(r.now().In(r.loc))
	return r.query(ctx, start, end)
}

// EventsTomorrow returns tomorrow's events.
func (r *CalDAVRepository) EventsTomorrow(ctx context.Context) ([]Event, error) {
	start, end := dayBounds(r.now().In(r.loc).AddDate(0, 0, 1))
	return r.query(ctx, start, end)
}

// EventsNextDays returns events for the next n days, starting today.
func (r *CalDAVRepository) EventsNextDays(ctx context.Context, n int) ([]Event, error) {
	if n < 1 {
		n = 1
	}
	today := r.now().In(r.loc)
	start, _ := dayBounds(today)
	_, end := dayBounds(today.AddDate(0, 0, n-1))
	return r.query(ctx, start, end)
}

// Health probes the server by re-resolving the current user principal.
func (r *CalDAVRepository) Health(ctx context.Context) error {
	if _, err := r.client.FindCurrentUserPrincipal(ctx); err != nil {
		return &FetchError{Source: r.SourceName(), Op: "health", Err: err}
	}
	return nil
}

// query issues a time-range calendar-query for VEVENTs in [start, end].
func (r *CalDAVRepository) query(ctx context.Context, start, end time.Time) ([]Event, error) {
	q := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}

	objs, err := r.client.QueryCalendar(ctx, r.calendarPath, q)
	if err != nil {
		return nil, &FetchError{Source: r.SourceName(), Op: "calendar-query", Err: err}
	}

	var events []Event
	for _, obj := range objs {
		if obj.Data == nil {
			continue
		}
		for _, ve := range obj.Data.Events() {
			ev, err := r.toEvent(ve)
			if err != nil {
				r.logger.Warn("skipping unparseable VEVENT", "path", obj.Path, "error", err)
				continue
			}
			events = append(events, ev)
		}
	}

	r.logger.Debug("caldav query complete", "start", start, "end", end, "count", len(events))
	return events, nil
}

// toEvent maps a VEVENT into the domain model.
func (r *CalDAVRepository) toEvent(ve ical.Event) (Event, error) {
	start, err := ve.DateTimeStart(r.loc)
	if err != nil {
		return Event{}, fmt.Errorf("DTSTART: %w", err)
	}
	// go-ical reports a missing DTSTART as a zero time, not an error.
	if start.IsZero() {
		return Event{}, fmt.Errorf("missing DTSTART")
	}

	ev := Event{Start: start.In(r.loc)}

	if end, err := ve.DateTimeEnd(r.loc); err == nil {
		ev.End = end.In(r.loc)
	}
	if s, err := ve.Props.Text(ical.PropSummary); err == nil {
		ev.Summary = s
	}
	if l, err := ve.Props.Text(ical.PropLocation); err == nil {
		ev.Location = l
	}
	if d, err := ve.Props.Text(ical.PropDescription); err == nil {
		ev.Description = d
	}

	return ev, nil
}

// findCalendar discovers the user's calendars and returns the path of
// the one with the matching display name. An empty name selects the
// first calendar found.
func (r *CalDAVRepository) findCalendar(ctx context.Context, name string) (string, error) {
	principal, err := r.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := r.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("find calendar home set: %w", err)
	}

	calendars, err := r.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("find calendars: %w", err)
	}

	for _, cal := range calendars {
		if name == "" || cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar named %q", name)
}

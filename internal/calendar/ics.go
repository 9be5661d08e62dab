package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hlab/insight-tools/internal/httpkit"
)

// icsTimeLayout is the wall-clock format the ICS API uses for event
// times. Values are already in the service's local timezone.
const icsTimeLayout = "2006-01-02 15:04"

// ICSRepository fetches events from an ICS calendar-query HTTP service
// exposing /calendar/events/{today,tomorrow}, /calendar/events/next/{n}
// and /calendar/health.
type ICSRepository struct {
	baseURL string
	loc     *time.Location
	client  *http.Client
	logger  *slog.Logger
}

// NewICSRepository creates a repository for an ICS calendar API.
// Parsed event times are interpreted in loc.
func NewICSRepository(baseURL string, timeout time.Duration, loc *time.Location, logger *slog.Logger) *ICSRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ICSRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		loc:     loc,
		client:  httpkit.NewClient(httpkit.WithTimeout(timeout)),
		logger:  logger,
	}
}

// SourceName identifies this backend in result metadata.
func (r *ICSRepository) SourceName() string {
	return "ics"
}

// EventsToday returns today's events.
func (r *ICSRepository) EventsToday(ctx context.Context) ([]Event, error) {
	return r.fetch(ctx, "/calendar/events/today")
}

// EventsTomorrow returns tomorrow's events.
func (r *ICSRepository) EventsTomorrow(ctx context.Context) ([]Event, error) {
	return r.fetch(ctx, "/calendar/events/tomorrow")
}

// EventsNextDays returns events for the next n days.
func (r *ICSRepository) EventsNextDays(ctx context.Context, n int) ([]Event, error) {
	return r.fetch(ctx, fmt.Sprintf("/calendar/events/next/%d", n))
}

// Health probes the calendar API health endpoint.
func (r *ICSRepository) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/calendar/health", nil)
	if err != nil {
		return &FetchError{Source: r.SourceName(), Op: "health", Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return &FetchError{Source: r.SourceName(), Op: "health", Err: err}
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return &FetchError{
			Source: r.SourceName(),
			Op:     "health",
			Err:    fmt.Errorf("API error %d: %s", resp.StatusCode, body),
		}
	}
	return nil
}

// icsEvent is the wire shape of one event from the ICS API.
type icsEvent struct {
	Summary     string `json:"summary"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// icsEventsResponse is the wire shape of an events listing.
type icsEventsResponse struct {
	Events []icsEvent `json:"events"`
}

func (r *ICSRepository) fetch(ctx context.Context, path string) ([]Event, error) {
	url := r.baseURL + path
	r.logger.Debug("fetching events from ICS API", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Source: r.SourceName(), Op: path, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: r.SourceName(), Op: path, Err: err}
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, &FetchError{
			Source: r.SourceName(),
			Op:     path,
			Err:    fmt.Errorf("API error %d: %s", resp.StatusCode, body),
		}
	}

	var payload icsEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Source: r.SourceName(), Op: path, Err: fmt.Errorf("decode response: %w", err)}
	}

	events := make([]Event, 0, len(payload.Events))
	for _, e := range payload.Events {
		events = append(events, r.toEvent(e))
	}

	r.logger.Debug("retrieved events", "path", path, "count", len(events))
	return events, nil
}

// toEvent maps a wire event into the domain model, interpreting the
// API's wall-clock times in the configured timezone. Unparseable times
// are left zero rather than dropping the event.
func (r *ICSRepository) toEvent(e icsEvent) Event {
	ev := Event{
		Summary:     e.Summary,
		Location:    e.Location,
		Description: e.Description,
	}
	if t, err := time.ParseInLocation(icsTimeLayout, e.Start, r.loc); err == nil {
		ev.Start = t
	} else if e.Start != "" {
		r.logger.Warn("could not parse event start", "value", e.Start, "error", err)
	}
	if t, err := time.ParseInLocation(icsTimeLayout, e.End, r.loc); err == nil {
		ev.End = t
	}
	return ev
}

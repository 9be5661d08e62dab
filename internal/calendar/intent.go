package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IntentType tags the classified meaning of a calendar query.
type IntentType string

const (
	// EventsToday asks for today's events.
	EventsToday IntentType = "events_today"
	// EventsTomorrow asks for tomorrow's events.
	EventsTomorrow IntentType = "events_tomorrow"
	// EventsRange asks for events over a span of days starting today.
	EventsRange IntentType = "events_range"
	// NextEvent asks for the first event at or after now, optionally
	// filtered by a search term ("when is my next dentist appointment").
	NextEvent IntentType = "next_event"
)

// nextEventHorizonDays bounds how far ahead a next_event lookup scans.
const nextEventHorizonDays = 30

// Intent is the structured result of classifying one query. It is
// created per query and discarded after use.
type Intent struct {
	Type      IntentType
	Timeframe string
	// Days is the span length for EventsRange (and the scan horizon for
	// NextEvent).
	Days int
	// Start and End are inclusive calendar-day bounds in the configured
	// timezone. For NextEvent, Start is the classification instant.
	Start time.Time
	End   time.Time
	// SearchTerm filters event summaries for NextEvent intents.
	SearchTerm string
}

// wordNumbers maps spelled-out counts in timeframe phrases.
var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var (
	reWhenNext  = regexp.MustCompile(`when\s+is\s+(?:the|my)\s+next\b\s*(.*)`)
	reNextWeeks = regexp.MustCompile(`next\s+(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s+weeks?`)
	reNextDays  = regexp.MustCompile(`next\s+(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s+days?`)
)

// Classify parses a calendar-flavored query into an Intent. It is a pure
// function: all date arithmetic happens in loc, ambiguous phrases fall
// back to today's events, and it never fails.
func Classify(query string, now time.Time, loc *time.Location) Intent {
	q := strings.ToLower(query)
	now = now.In(loc)

	// "when is the/my next X" — first matching event at or after now.
	if m := reWhenNext.FindStringSubmatch(q); m != nil {
		return nextEventIntent(now, strings.TrimSpace(strings.TrimSuffix(m[1], "?")))
	}
	// "next meeting" / "next event" without the question framing.
	if strings.Contains(q, "next meeting") || strings.Contains(q, "next event") || strings.Contains(q, "next appointment") {
		return nextEventIntent(now, "")
	}

	if m := reNextWeeks.FindStringSubmatch(q); m != nil {
		weeks := parseCount(m[1])
		return rangeIntent(now, weeks*7, fmt.Sprintf("next %d week%s", weeks, plural(weeks)))
	}
	if m := reNextDays.FindStringSubmatch(q); m != nil {
		days := parseCount(m[1])
		return rangeIntent(now, days, fmt.Sprintf("next %d day%s", days, plural(days)))
	}

	if strings.Contains(q, "next month") || strings.Contains(q, "this month") {
		return rangeIntent(now, 30, "next month")
	}
	if strings.Contains(q, "this week") {
		return rangeIntent(now, 7, "this week")
	}
	if strings.Contains(q, "next week") {
		return rangeIntent(now, 7, "next week")
	}

	if strings.Contains(q, "tomorrow") {
		start, end := dayBounds(now.AddDate(0, 0, 1))
		return Intent{Type: EventsTomorrow, Timeframe: "tomorrow", Start: start, End: end}
	}

	if strings.Contains(q, "today") || strings.Contains(q, "tonight") {
		start, end := dayBounds(now)
		return Intent{Type: EventsToday, Timeframe: "today", Start: start, End: end}
	}

	// Unrecognized timeframe: silent fallback, never an error.
	start, end := dayBounds(now)
	return Intent{Type: EventsToday, Timeframe: "today", Start: start, End: end}
}

func rangeIntent(now time.Time, days int, timeframe string) Intent {
	if days < 1 {
		days = 1
	}
	start, _ := dayBounds(now)
	_, end := dayBounds(now.AddDate(0, 0, days-1))
	return Intent{Type: EventsRange, Timeframe: timeframe, Days: days, Start: start, End: end}
}

func nextEventIntent(now time.Time, term string) Intent {
	_, end := dayBounds(now.AddDate(0, 0, nextEventHorizonDays-1))
	return Intent{
		Type:       NextEvent,
		Timeframe:  fmt.Sprintf("next %d days", nextEventHorizonDays),
		Days:       nextEventHorizonDays,
		Start:      now,
		End:        end,
		SearchTerm: term,
	}
}

// dayBounds returns the inclusive calendar-day bounds of t in its own
// location: 00:00:00 through 23:59:59.
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end := time.Date(y, m, d, 23, 59, 59, 0, t.Location())
	return start, end
}

func parseCount(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if n, ok := wordNumbers[s]; ok {
		return n
	}
	return 1
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// primaryKeywords are strong calendar indicators: any one of these makes
// a query calendar-related on its own.
var primaryKeywords = []string{
	"calendar", "event", "events", "schedule", "appointment", "appointments",
	"meeting", "meetings", "agenda", "today", "tomorrow", "tonight",
	"this week", "next week", "this month", "next month",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// secondaryKeywords only count when the query is not about documents.
var secondaryKeywords = []string{
	"when", "what time", "am i busy", "free", "available",
}

// documentKeywords exclude queries about files rather than schedules.
var documentKeywords = []string{
	"document", "file", "pdf", "email", "attachment",
}

// Keywords returns the calendar intent vocabulary, lowercase. This is
// the broad analyzer-level set, a superset of typical tool keyword sets.
func Keywords() []string {
	out := make([]string, len(primaryKeywords))
	copy(out, primaryKeywords)
	return out
}

// IsCalendarQuery reports whether a query looks calendar-related.
// Matching is case-insensitive substring containment, no NLP.
func IsCalendarQuery(query string) bool {
	q := strings.ToLower(query)

	for _, kw := range primaryKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}

	for _, kw := range secondaryKeywords {
		if !strings.Contains(q, kw) {
			continue
		}
		for _, excl := range documentKeywords {
			if strings.Contains(q, excl) {
				return false
			}
		}
		return true
	}

	return reWhenNext.MatchString(q)
}

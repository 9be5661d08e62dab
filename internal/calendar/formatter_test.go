package calendar

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func formatterTestEvents() []Event {
	day := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	return []Event{
		{
			Summary:  "Standup",
			Start:    day.Add(9 * time.Hour),
			End:      day.Add(9*time.Hour + 30*time.Minute),
			Location: "Conference Room B",
		},
		{
			Summary:     "Design Review",
			Start:       day.Add(14 * time.Hour),
			End:         day.Add(15 * time.Hour),
			Description: "Agenda: Q2 roadmap. Join: https://us02web.zoom.us/j/12345",
		},
	}
}

func TestFormatEventsToday(t *testing.T) {
	f := NewFormatter(time.UTC)
	intent := Classify("today", intentTestNow, time.UTC)

	got := f.FormatEvents(formatterTestEvents(), intent)

	if !strings.HasPrefix(got, "You have 2 events today:") {
		t.Errorf("missing header, got:\n%s", got)
	}
	for _, want := range []string{
		"**Standup**",
		"9:00 AM - 9:30 AM UTC",
		"Location: Conference Room B",
		"**Design Review**",
		"Zoom: https://us02web.zoom.us/j/12345",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	// Single-day views don't repeat the date.
	if strings.Contains(got, "Wednesday") {
		t.Errorf("today view should not print dates:\n%s", got)
	}
}

func TestFormatEventsSingular(t *testing.T) {
	f := NewFormatter(time.UTC)
	intent := Classify("today", intentTestNow, time.UTC)

	got := f.FormatEvents(formatterTestEvents()[:1], intent)
	if !strings.HasPrefix(got, "You have 1 event today:") {
		t.Errorf("singular header wrong:\n%s", got)
	}
}

func TestFormatEventsRangeShowsDates(t *testing.T) {
	f := NewFormatter(time.UTC)
	intent := Classify("next 3 days", intentTestNow, time.UTC)

	got := f.FormatEvents(formatterTestEvents(), intent)
	if !strings.Contains(got, "You have 2 events in the next 3 days:") {
		t.Errorf("range header wrong:\n%s", got)
	}
	if !strings.Contains(got, "Wednesday, Mar 12") {
		t.Errorf("multi-day view should print dates:\n%s", got)
	}
}

func TestFormatNoEvents(t *testing.T) {
	f := NewFormatter(time.UTC)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"today", "today", "You have no events scheduled for today."},
		{"tomorrow", "tomorrow", "You have no events scheduled for tomorrow."},
		{"week", "this week", "You have no events scheduled for this week."},
		{"range", "next 3 days", "You have no events in the next 3 days."},
		{"next event", "next meeting", "No upcoming events found in the next 30 days."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := Classify(tt.query, intentTestNow, time.UTC)
			if got := f.FormatEvents(nil, intent); got != tt.want {
				t.Errorf("FormatEvents(nil) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatNoEventsWithSearchTerm(t *testing.T) {
	f := NewFormatter(time.UTC)
	intent := Classify("when is my next dentist appointment", intentTestNow, time.UTC)

	got := f.FormatEvents(nil, intent)
	want := `No events found matching "dentist appointment" in the next 30 days.`
	if got != want {
		t.Errorf("FormatEvents(nil) = %q, want %q", got, want)
	}
}

func TestFormatNextEvent(t *testing.T) {
	f := NewFormatter(time.UTC)
	intent := Classify("when is the next design review", intentTestNow, time.UTC)

	got := f.FormatEvents(formatterTestEvents()[1:], intent)

	if !strings.HasPrefix(got, `Your next "design review" event:`) {
		t.Errorf("next event header wrong:\n%s", got)
	}
	if !strings.Contains(got, "Wednesday, March 12, 2025") {
		t.Errorf("next event should show the full date:\n%s", got)
	}
	if !strings.Contains(got, "2:00 PM - 3:00 PM UTC") {
		t.Errorf("next event should show the time range:\n%s", got)
	}
}

func TestFormatEventsDeterministic(t *testing.T) {
	f := NewFormatter(time.UTC)
	intent := Classify("today", intentTestNow, time.UTC)
	events := formatterTestEvents()

	first := f.FormatEvents(events, intent)
	second := f.FormatEvents(events, intent)
	if first != second {
		t.Error("FormatEvents is not deterministic for identical input")
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Bring the slides", "Bring the slides"},
		{"html stripped", "<p>Bring the <b>slides</b></p>", "Bring the slides"},
		{"whitespace collapsed", "a\n\n  b\t c", "a b c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanDescription(tt.input); got != tt.want {
				t.Errorf("cleanDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatEventDescriptionLimits(t *testing.T) {
	f := NewFormatter(time.UTC)
	day := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)

	t.Run("long description truncated", func(t *testing.T) {
		ev := Event{Summary: "Talk", Start: day, Description: strings.Repeat("x", 300)}
		got := strings.Join(f.formatEvent(ev, false), "\n")
		if !strings.Contains(got, strings.Repeat("x", 200)+"...") {
			t.Errorf("expected 200-char truncation:\n%s", got)
		}
	})

	t.Run("multibyte truncated on rune boundary", func(t *testing.T) {
		// "日" is 3 bytes; 100 of them straddle the 200-byte cutoff,
		// so the truncation must back up rather than split a rune.
		ev := Event{Summary: "Talk", Start: day, Description: strings.Repeat("日", 100)}
		got := strings.Join(f.formatEvent(ev, false), "\n")
		if !utf8.ValidString(got) {
			t.Errorf("truncated output is not valid UTF-8:\n%s", got)
		}
		if !strings.Contains(got, strings.Repeat("日", 66)+"...") {
			t.Errorf("expected truncation at previous rune boundary:\n%s", got)
		}
	})

	t.Run("huge description dropped", func(t *testing.T) {
		ev := Event{Summary: "Talk", Start: day, Description: strings.Repeat("x", 600)}
		got := strings.Join(f.formatEvent(ev, false), "\n")
		if strings.Contains(got, "xxx") {
			t.Errorf("descriptions over the limit should be dropped:\n%s", got)
		}
	})
}

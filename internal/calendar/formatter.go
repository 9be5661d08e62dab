package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Formatter renders events into human-readable text suitable for chat
// display or speech synthesis. Output is deterministic: the same events
// and intent always produce identical text.
type Formatter struct {
	loc *time.Location
}

// NewFormatter creates a formatter that renders times in loc.
func NewFormatter(loc *time.Location) *Formatter {
	return &Formatter{loc: loc}
}

// Description length limits. Descriptions longer than maxDescription
// are dropped entirely; kept ones are truncated to truncateDescription.
const (
	maxDescription      = 500
	truncateDescription = 200
)

var reZoomLink = regexp.MustCompile(`https://\S+zoom\S+`)

// FormatEvents renders an event list under the given intent. Zero
// events yields an explicit "no events" message, never an empty string.
func (f *Formatter) FormatEvents(events []Event, intent Intent) string {
	if len(events) == 0 {
		return f.formatNoEvents(intent)
	}

	if intent.Type == NextEvent {
		return f.formatNextEvent(events[0], intent.SearchTerm)
	}

	return f.formatEventList(events, intent)
}

func (f *Formatter) formatNoEvents(intent Intent) string {
	if intent.Type == NextEvent {
		if intent.SearchTerm != "" {
			return fmt.Sprintf("No events found matching %q in the %s.", intent.SearchTerm, intent.Timeframe)
		}
		return fmt.Sprintf("No upcoming events found in the %s.", intent.Timeframe)
	}

	switch intent.Timeframe {
	case "today":
		return "You have no events scheduled for today."
	case "tomorrow":
		return "You have no events scheduled for tomorrow."
	default:
		if strings.Contains(intent.Timeframe, "week") {
			return fmt.Sprintf("You have no events scheduled for %s.", intent.Timeframe)
		}
		return fmt.Sprintf("You have no events in the %s.", intent.Timeframe)
	}
}

// formatNextEvent renders a single event for "when is my next X" queries.
func (f *Formatter) formatNextEvent(ev Event, searchTerm string) string {
	var b strings.Builder

	if searchTerm != "" {
		fmt.Fprintf(&b, "Your next %q event:\n\n", searchTerm)
	} else {
		b.WriteString("Your next event:\n\n")
	}
	fmt.Fprintf(&b, "%s\n", ev.Summary)

	if !ev.Start.IsZero() {
		start := ev.Start.In(f.loc)
		// Full date — this could be weeks away.
		fmt.Fprintf(&b, "%s\n", start.Format("Monday, January 2, 2006"))
		fmt.Fprintf(&b, "%s\n", f.timeRange(ev))
	}

	if ev.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", ev.Location)
	}

	if desc := cleanDescription(ev.Description); desc != "" && len(desc) < truncateDescription {
		fmt.Fprintf(&b, "\n%s", desc)
	}

	return b.String()
}

func (f *Formatter) formatEventList(events []Event, intent Intent) string {
	count := len(events)
	var header string
	switch intent.Timeframe {
	case "today":
		header = fmt.Sprintf("You have %d event%s today:", count, plural(count))
	case "tomorrow":
		header = fmt.Sprintf("You have %d event%s tomorrow:", count, plural(count))
	default:
		if strings.Contains(intent.Timeframe, "week") {
			header = fmt.Sprintf("You have %d event%s %s:", count, plural(count), intent.Timeframe)
		} else {
			header = fmt.Sprintf("You have %d event%s in the %s:", count, plural(count), intent.Timeframe)
		}
	}

	lines := []string{header, ""}

	// Dates are implied for single-day timeframes.
	showDate := intent.Timeframe != "today" && intent.Timeframe != "tomorrow"

	for _, ev := range events {
		lines = append(lines, f.formatEvent(ev, showDate)...)
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// formatEvent renders one event as indented lines under its summary.
func (f *Formatter) formatEvent(ev Event, showDate bool) []string {
	lines := []string{fmt.Sprintf("**%s**", ev.Summary)}

	if !ev.Start.IsZero() {
		if showDate {
			lines = append(lines, "  "+ev.Start.In(f.loc).Format("Monday, Jan 2"))
		}
		lines = append(lines, "  "+f.timeRange(ev))
	}

	if ev.Location != "" {
		lines = append(lines, "  Location: "+ev.Location)
	}

	if ev.Description != "" {
		if m := reZoomLink.FindString(ev.Description); m != "" {
			lines = append(lines, "  Zoom: "+m)
		}
		desc := cleanDescription(ev.Description)
		if desc != "" && len(desc) < maxDescription {
			if len(desc) > truncateDescription {
				desc = truncateAtRune(desc, truncateDescription) + "..."
			}
			lines = append(lines, "  "+desc)
		}
	}

	return lines
}

// timeRange renders "10:00 AM - 11:00 AM MST" in the configured zone,
// or just the start time when no end is known.
func (f *Formatter) timeRange(ev Event) string {
	start := ev.Start.In(f.loc)
	if ev.End.IsZero() {
		return start.Format("3:04 PM MST")
	}
	end := ev.End.In(f.loc)
	return fmt.Sprintf("%s - %s", start.Format("3:04 PM"), end.Format("3:04 PM MST"))
}

// cleanDescription strips HTML markup from a description and collapses
// whitespace. Calendar descriptions frequently arrive as HTML fragments
// from invitation emails.
func cleanDescription(desc string) string {
	if desc == "" {
		return ""
	}

	node, err := html.Parse(strings.NewReader(desc))
	if err != nil {
		return collapseWhitespace(desc)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	return collapseWhitespace(b.String())
}

// truncateAtRune cuts s to at most max bytes without splitting a
// multibyte rune, backing up to the previous rune boundary if needed.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

var reWhitespace = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

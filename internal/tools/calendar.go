package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hlab/insight-tools/internal/calendar"
)

// Calendar adapts a calendar.Analyzer to the Tool contract so calendar
// queries participate in capability routing alongside the other
// providers.
type Calendar struct {
	analyzer *calendar.Analyzer
	timeout  time.Duration
	enabled  bool
	logger   *slog.Logger
}

// NewCalendar wraps an analyzer as a routable tool.
func NewCalendar(analyzer *calendar.Analyzer, timeout time.Duration, enabled bool, logger *slog.Logger) *Calendar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calendar{
		analyzer: analyzer,
		timeout:  timeout,
		enabled:  enabled,
		logger:   logger,
	}
}

// Name implements Tool.
func (c *Calendar) Name() string { return "calendar" }

// Description implements Tool.
func (c *Calendar) Description() string {
	return "Calendar tool - retrieves events and schedules for today, tomorrow, or upcoming days"
}

// Keywords implements Tool. Calendar matching uses the analyzer's
// broad vocabulary, wider than typical tool keyword sets.
func (c *Calendar) Keywords() []string { return calendar.Keywords() }

// RequiredConfig implements Tool.
func (c *Calendar) RequiredConfig() []string { return []string{"api_url"} }

// Enabled implements Tool.
func (c *Calendar) Enabled() bool { return c.enabled }

// Available implements Tool.
func (c *Calendar) Available() bool { return c.enabled && c.analyzer != nil }

// Timeout implements Tool.
func (c *Calendar) Timeout() time.Duration { return c.timeout }

// CanHandle implements Tool. Beyond plain keyword containment, the
// analyzer recognizes scheduling questions ("am I busy", "when is my
// next ...") while excluding document queries.
func (c *Calendar) CanHandle(query string) bool {
	return c.Available() && c.analyzer.CanHandle(query)
}

// Execute implements Tool. The analyzer already converts repository
// failures into a failure Analysis, which is mapped onto the Result
// contract here.
func (c *Calendar) Execute(ctx context.Context, query string) Result {
	if !c.Available() {
		return failure(c.Name(), fmt.Sprintf("calendar %v", ErrNotConfigured))
	}

	analysis := c.analyzer.Analyze(ctx, query)
	if !analysis.Success {
		res := failure(c.Name(), analysis.Error)
		res.Metadata["data_source"] = c.analyzer.SourceName()
		return res
	}

	res := success(c.Name(), analysis)
	res.Metadata["event_count"] = len(analysis.Events)
	res.Metadata["data_source"] = c.analyzer.SourceName()
	return res
}

// HealthCheck implements Tool.
func (c *Calendar) HealthCheck(ctx context.Context) bool {
	if !c.Available() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.analyzer.CheckHealth(ctx); err != nil {
		c.logger.Warn("calendar health check failed", "error", err)
		return false
	}
	return true
}

// FormatForLLM implements Tool.
func (c *Calendar) FormatForLLM(res Result) string {
	if !res.Success {
		return fmt.Sprintf("[Calendar tool error: %s]", res.Error)
	}

	analysis, ok := res.Data.(calendar.Analysis)
	if !ok || analysis.FormattedText == "" {
		return fmt.Sprintf("[%s tool response: %v]", c.Name(), res.Data)
	}

	return "[Calendar Information]\n" + analysis.FormattedText
}

// Package tools defines the capability providers available to the
// router. Each tool wraps one external data source behind a uniform
// contract: keyword-based relevance, isolated execution with a
// per-call timeout, and LLM-ready result formatting.
package tools

import (
	"context"
	"strings"
	"time"
)

// Result is the normalized outcome of one tool execution. Success=true
// implies a non-nil Data payload; Success=false implies a non-empty
// Error message. Tools never panic and never return Go errors across
// the routing boundary — every failure becomes a Result.
type Result struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// Tool is the contract implemented by every capability provider.
type Tool interface {
	// Name is the unique registry identifier.
	Name() string
	// Description is a human-readable summary for status surfaces.
	Description() string
	// Keywords is the static lowercase vocabulary used for matching.
	Keywords() []string
	// RequiredConfig lists configuration keys that must be non-empty
	// for the tool to be available.
	RequiredConfig() []string
	// Enabled reports the configured enablement flag.
	Enabled() bool
	// Available reports whether the tool is enabled and fully
	// configured. Unavailable tools are never invoked.
	Available() bool
	// CanHandle reports whether the tool should run for this query:
	// available and the lowercased query contains at least one keyword
	// as a substring. No stemming, no NLP.
	CanHandle(query string) bool
	// Execute performs the external call. It catches connection, HTTP
	// status, and timeout failures, mapping each to a distinct error
	// message; it never returns an error or panics.
	Execute(ctx context.Context, query string) Result
	// HealthCheck is a lightweight reachability probe, independent of
	// Execute.
	HealthCheck(ctx context.Context) bool
	// FormatForLLM renders a Result as a labeled text block for
	// context concatenation. Failures produce a short bracketed
	// diagnostic, never a panic.
	FormatForLLM(res Result) string
	// Timeout is the configured per-call ceiling.
	Timeout() time.Duration
}

// matchKeyword scans keywords for case-insensitive substring
// containment in query, returning the first hit.
func matchKeyword(query string, keywords []string) (string, bool) {
	q := strings.ToLower(query)
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return kw, true
		}
	}
	return "", false
}

// failure builds a failed Result tagged with the tool name.
func failure(tool, msg string) Result {
	return Result{
		Success:  false,
		Error:    msg,
		Metadata: map[string]any{"tool": tool},
	}
}

// success builds a successful Result tagged with the tool name.
func success(tool string, data any) Result {
	return Result{
		Success:  true,
		Data:     data,
		Metadata: map[string]any{"tool": tool},
	}
}

// Package calendar provides natural-language calendar analysis: a
// timeframe classifier, a pluggable event repository, and a formatter
// that renders events for humans, LLMs, or speech synthesis.
package calendar

import "time"

// Event is a single calendar entry. Events are produced by a Repository
// and never mutated after creation.
type Event struct {
	Summary     string    `json:"summary"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

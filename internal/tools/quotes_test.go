package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hlab/insight-tools/internal/config"
)

func newTestQuotes(t *testing.T, handler http.Handler) (*Quotes, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	q := NewQuotes(config.QuotesConfig{
		ToolConfig: config.ToolConfig{Enabled: true, APIURL: srv.URL, TimeoutSec: 5},
	}, discardLogger())
	return q, srv
}

func TestQuotesCanHandle(t *testing.T) {
	q := NewQuotes(config.QuotesConfig{
		ToolConfig: config.ToolConfig{Enabled: true, APIURL: "http://quotes.local"},
	}, discardLogger())

	tests := []struct {
		query string
		want  bool
	}{
		{"give me an inspirational quote", true},
		{"who said that famous line", true},
		{"any words of wisdom", true},
		{"what's the weather", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := q.CanHandle(tt.query); got != tt.want {
				t.Errorf("CanHandle(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestQuotesExecute(t *testing.T) {
	q, _ := newTestQuotes(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quotes" {
			t.Errorf("path = %q, want /api/quotes", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "wisdom" {
			t.Errorf("query param = %q, want wisdom", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit param = %q, want 5", got)
		}
		json.NewEncoder(rw).Encode(quotesAPIResponse{Quotes: []Quote{
			{Text: "Stay hungry.", Author: "S. Jobs"},
			{Text: "Simplicity is the ultimate sophistication.", Author: "Leonardo", Source: "notebooks"},
		}})
	}))

	res := q.Execute(context.Background(), "wisdom")
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}

	list, ok := res.Data.(*QuoteList)
	if !ok {
		t.Fatalf("Data type = %T, want *QuoteList", res.Data)
	}
	if list.Count != 2 || len(list.Quotes) != 2 {
		t.Errorf("Count = %d, len = %d, want 2", list.Count, len(list.Quotes))
	}
}

func TestQuotesExecuteCapsAtLimit(t *testing.T) {
	q, _ := newTestQuotes(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var quotes []Quote
		for i := 0; i < 8; i++ {
			quotes = append(quotes, Quote{Text: fmt.Sprintf("quote %d", i), Author: "A"})
		}
		json.NewEncoder(rw).Encode(quotesAPIResponse{Quotes: quotes})
	}))

	res := q.Execute(context.Background(), "quote")
	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	list := res.Data.(*QuoteList)
	if len(list.Quotes) != quoteLimit {
		t.Errorf("len(Quotes) = %d, want %d", len(list.Quotes), quoteLimit)
	}
}

func TestQuotesExecuteEmpty(t *testing.T) {
	q, _ := newTestQuotes(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		json.NewEncoder(rw).Encode(quotesAPIResponse{})
	}))

	res := q.Execute(context.Background(), "quote")
	if res.Success {
		t.Fatal("Execute() succeeded with zero quotes, want failure")
	}
	if !strings.Contains(res.Error, "no quotes found") {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestQuotesExecuteServerError(t *testing.T) {
	q, _ := newTestQuotes(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))

	res := q.Execute(context.Background(), "quote")
	if res.Success {
		t.Fatal("Execute() succeeded, want failure")
	}
}

// stubQuoteSource lets tool-level tests bypass HTTP entirely.
type stubQuoteSource struct {
	quotes []Quote
	err    error
}

func (s *stubQuoteSource) Fetch(ctx context.Context, query string, limit int) ([]Quote, error) {
	return s.quotes, s.err
}

func (s *stubQuoteSource) Probe(ctx context.Context) error { return s.err }

func TestQuotesHealthCheck(t *testing.T) {
	q := NewQuotes(config.QuotesConfig{
		ToolConfig: config.ToolConfig{Enabled: true, APIURL: "http://quotes.local"},
	}, discardLogger())

	q.source = &stubQuoteSource{}
	if !q.HealthCheck(context.Background()) {
		t.Error("HealthCheck() = false, want true")
	}

	q.source = &stubQuoteSource{err: errors.New("feed unreachable")}
	if q.HealthCheck(context.Background()) {
		t.Error("HealthCheck() = true, want false")
	}
}

func TestQuotesFeedSourceSelection(t *testing.T) {
	q := NewQuotes(config.QuotesConfig{
		ToolConfig: config.ToolConfig{Enabled: true},
		FeedURL:    "http://quotes.local/feed.xml",
	}, discardLogger())

	if !q.Available() {
		t.Error("Available() = false, want true with feed URL only")
	}
	if _, ok := q.source.(*feedQuoteSource); !ok {
		t.Errorf("source type = %T, want *feedQuoteSource", q.source)
	}
	if got := q.RequiredConfig(); len(got) != 1 || got[0] != "feed_url" {
		t.Errorf("RequiredConfig() = %v, want [feed_url]", got)
	}
}

func TestQuotesFormatForLLM(t *testing.T) {
	q := NewQuotes(config.QuotesConfig{
		ToolConfig: config.ToolConfig{Enabled: true, APIURL: "http://quotes.local"},
	}, discardLogger())

	t.Run("numbered block", func(t *testing.T) {
		res := success("quotes", &QuoteList{
			Quotes: []Quote{
				{Text: "Stay hungry.", Author: "S. Jobs"},
				{Text: "Less is more.", Author: "Mies", Source: "lectures"},
			},
			Count: 2,
		})
		got := q.FormatForLLM(res)
		if !strings.Contains(got, "RELEVANT QUOTES:") {
			t.Errorf("missing section header:\n%s", got)
		}
		if !strings.Contains(got, `1. "Stay hungry."`) {
			t.Errorf("missing numbered quote:\n%s", got)
		}
		if !strings.Contains(got, "(lectures)") {
			t.Errorf("missing source attribution:\n%s", got)
		}
	})

	t.Run("failure block", func(t *testing.T) {
		got := q.FormatForLLM(failure("quotes", "feed unreachable"))
		if !strings.Contains(got, "[Quotes unavailable: feed unreachable]") {
			t.Errorf("failure block wrong:\n%s", got)
		}
	})
}

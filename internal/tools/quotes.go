package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hlab/insight-tools/internal/config"
	"github.com/hlab/insight-tools/internal/httpkit"
)

// quotesKeywords is the vocabulary that suggests a quote query.
var quotesKeywords = []string{
	"quote", "quotes", "quotation",
	"saying", "proverb", "wisdom",
	"inspiration", "inspire", "motivate", "motivation",
	"famous saying", "who said",
	"rss", "feed", "article",
}

// quoteLimit caps how many quotes one query returns.
const quoteLimit = 5

// Quote is a single quotation entry.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Source string `json:"source,omitempty"`
}

// QuoteList is the Data payload of a successful quotes Result.
type QuoteList struct {
	Quotes []Quote `json:"quotes"`
	Count  int     `json:"count"`
}

// quoteSource abstracts where quotes come from: the quotes HTTP API or
// a direct RSS/Atom feed.
type quoteSource interface {
	Fetch(ctx context.Context, query string, limit int) ([]Quote, error)
	Probe(ctx context.Context) error
}

// Quotes provides quotations from an RSS-quotes service.
type Quotes struct {
	apiURL  string
	feedURL string
	timeout time.Duration
	enabled bool
	source  quoteSource
	logger  *slog.Logger
}

// NewQuotes creates the quotes tool from its configuration. When a
// feed URL is configured the tool reads the feed directly; otherwise
// it calls the quotes HTTP API.
func NewQuotes(cfg config.QuotesConfig, logger *slog.Logger) *Quotes {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Quotes{
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		feedURL: cfg.FeedURL,
		timeout: cfg.Timeout(),
		enabled: cfg.Enabled,
		logger:  logger,
	}
	if cfg.FeedURL != "" {
		q.source = newFeedQuoteSource(cfg.FeedURL, cfg.Timeout(), logger)
	} else {
		q.source = &apiQuoteSource{
			apiURL: q.apiURL,
			client: httpkit.NewClient(httpkit.WithTimeout(cfg.Timeout())),
		}
	}
	return q
}

// Name implements Tool.
func (q *Quotes) Name() string { return "quotes" }

// Description implements Tool.
func (q *Quotes) Description() string {
	return "Quotes tool - provides inspirational quotes and content from RSS feeds"
}

// Keywords implements Tool.
func (q *Quotes) Keywords() []string { return quotesKeywords }

// RequiredConfig implements Tool. A direct feed URL substitutes for
// the API URL.
func (q *Quotes) RequiredConfig() []string {
	if q.feedURL != "" {
		return []string{"feed_url"}
	}
	return []string{"api_url"}
}

// Enabled implements Tool.
func (q *Quotes) Enabled() bool { return q.enabled }

// Available implements Tool.
func (q *Quotes) Available() bool {
	return q.enabled && (q.apiURL != "" || q.feedURL != "")
}

// Timeout implements Tool.
func (q *Quotes) Timeout() time.Duration { return q.timeout }

// CanHandle implements Tool.
func (q *Quotes) CanHandle(query string) bool {
	if !q.Available() {
		return false
	}
	kw, ok := matchKeyword(query, quotesKeywords)
	if ok {
		q.logger.Debug("quotes tool matched keyword", "keyword", kw)
	}
	return ok
}

// Execute implements Tool.
func (q *Quotes) Execute(ctx context.Context, query string) Result {
	if !q.Available() {
		return failure(q.Name(), fmt.Sprintf("quotes %v", ErrNotConfigured))
	}

	quotes, err := q.source.Fetch(ctx, query, quoteLimit)
	if err != nil {
		return failure(q.Name(), errorMessage(err, "quotes", q.backendURL(), q.timeout))
	}

	if len(quotes) == 0 {
		return failure(q.Name(), "no quotes found matching the query")
	}

	res := success(q.Name(), &QuoteList{Quotes: quotes, Count: len(quotes)})
	res.Metadata["api_url"] = q.backendURL()
	return res
}

// HealthCheck implements Tool.
func (q *Quotes) HealthCheck(ctx context.Context) bool {
	if !q.Available() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := q.source.Probe(ctx); err != nil {
		q.logger.Warn("quotes health check failed", "error", err)
		return false
	}
	return true
}

// FormatForLLM implements Tool.
func (q *Quotes) FormatForLLM(res Result) string {
	if !res.Success {
		return fmt.Sprintf("\n\n[Quotes unavailable: %s]", res.Error)
	}

	list, ok := res.Data.(*QuoteList)
	if !ok || len(list.Quotes) == 0 {
		return "\n\n[No quotes found]"
	}

	var b strings.Builder
	b.WriteString("\n\n---\nRELEVANT QUOTES:\n")
	for i, quote := range list.Quotes {
		fmt.Fprintf(&b, "\n%d. %q\n   - %s", i+1, quote.Text, quote.Author)
		if quote.Source != "" {
			fmt.Fprintf(&b, " (%s)", quote.Source)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n---\n\nUse the quotes above to help answer the user's question.\n")
	return b.String()
}

func (q *Quotes) backendURL() string {
	if q.feedURL != "" {
		return q.feedURL
	}
	return q.apiURL
}

// apiQuoteSource fetches quotes from the quotes HTTP API.
type apiQuoteSource struct {
	apiURL string
	client *http.Client
}

// quotesAPIResponse is the wire shape of the quotes API listing.
type quotesAPIResponse struct {
	Quotes []Quote `json:"quotes"`
}

func (s *apiQuoteSource) Fetch(ctx context.Context, query string, limit int) ([]Quote, error) {
	endpoint := s.apiURL + "/api/quotes?" + url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quotes API returned error: %d", resp.StatusCode)
	}

	var payload quotesAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}

	if len(payload.Quotes) > limit {
		payload.Quotes = payload.Quotes[:limit]
	}
	return payload.Quotes, nil
}

func (s *apiQuoteSource) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	httpkit.DrainAndClose(resp.Body, 4096)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return nil
}

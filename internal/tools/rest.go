package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hlab/insight-tools/internal/config"
	"github.com/hlab/insight-tools/internal/httpkit"
)

// REST is the template for integrating a new data source without
// writing a dedicated tool: give it a name, a keyword vocabulary, and
// a JSON GET endpoint, and it participates in routing like any other
// provider. The response body is passed through as the Data payload.
type REST struct {
	name        string
	description string
	keywords    []string
	apiURL      string
	path        string
	queryParam  string
	healthPath  string
	timeout     time.Duration
	enabled     bool
	client      *http.Client
	logger      *slog.Logger
}

// NewREST creates a generic JSON-over-GET provider. path is the
// endpoint to call; queryParam names the parameter carrying the raw
// query text.
func NewREST(name, description string, keywords []string, cfg config.ToolConfig, path, queryParam string, logger *slog.Logger) *REST {
	if logger == nil {
		logger = slog.Default()
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &REST{
		name:        name,
		description: description,
		keywords:    lowered,
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		path:        path,
		queryParam:  queryParam,
		healthPath:  "/health",
		timeout:     cfg.Timeout(),
		enabled:     cfg.Enabled,
		client:      httpkit.NewClient(httpkit.WithTimeout(cfg.Timeout())),
		logger:      logger,
	}
}

// Name implements Tool.
func (r *REST) Name() string { return r.name }

// Description implements Tool.
func (r *REST) Description() string { return r.description }

// Keywords implements Tool.
func (r *REST) Keywords() []string { return r.keywords }

// RequiredConfig implements Tool.
func (r *REST) RequiredConfig() []string { return []string{"api_url"} }

// Enabled implements Tool.
func (r *REST) Enabled() bool { return r.enabled }

// Available implements Tool.
func (r *REST) Available() bool { return r.enabled && r.apiURL != "" }

// Timeout implements Tool.
func (r *REST) Timeout() time.Duration { return r.timeout }

// CanHandle implements Tool.
func (r *REST) CanHandle(query string) bool {
	if !r.Available() {
		return false
	}
	_, ok := matchKeyword(query, r.keywords)
	return ok
}

// Execute implements Tool.
func (r *REST) Execute(ctx context.Context, query string) Result {
	if !r.Available() {
		return failure(r.name, fmt.Sprintf("%s %v", r.name, ErrNotConfigured))
	}

	endpoint := r.apiURL + r.path
	if r.queryParam != "" {
		endpoint += "?" + url.Values{r.queryParam: {query}}.Encode()
	}
	r.logger.Debug("calling REST tool backend", "tool", r.name, "endpoint", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failure(r.name, fmt.Sprintf("%s API error: %v", r.name, err))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return failure(r.name, errorMessage(err, r.name, r.apiURL, r.timeout))
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return failure(r.name, fmt.Sprintf("%s API returned error: %d", r.name, resp.StatusCode))
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return failure(r.name, fmt.Sprintf("%s API error: malformed response: %v", r.name, err))
	}

	res := success(r.name, payload)
	res.Metadata["api_url"] = r.apiURL
	return res
}

// HealthCheck implements Tool.
func (r *REST) HealthCheck(ctx context.Context) bool {
	if !r.Available() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+r.healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	httpkit.DrainAndClose(resp.Body, 4096)
	return resp.StatusCode == http.StatusOK
}

// FormatForLLM implements Tool.
func (r *REST) FormatForLLM(res Result) string {
	if !res.Success {
		return fmt.Sprintf("[%s tool error: %s]", r.name, res.Error)
	}
	data, err := json.Marshal(res.Data)
	if err != nil {
		return fmt.Sprintf("[%s tool response: %v]", r.name, res.Data)
	}
	return fmt.Sprintf("[%s tool response: %s]", r.name, data)
}

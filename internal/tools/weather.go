package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hlab/insight-tools/internal/config"
	"github.com/hlab/insight-tools/internal/httpkit"
)

// weatherKeywords is the vocabulary that suggests a weather query.
var weatherKeywords = []string{
	// Direct weather terms
	"weather", "temperature", "temp", "forecast",
	"rain", "raining", "sunny", "cloudy", "snow", "snowing",
	"wind", "windy", "humidity", "humid",
	"hot", "cold", "warm", "cool", "freezing",

	// Weather metrics
	"degrees", "fahrenheit", "celsius",
	"precipitation", "pressure", "barometric",
	"uv index", "sunshine",

	// Weather questions
	"outside", "outdoors",
	"umbrella", "jacket", "coat", "shorts",

	// Station specific
	"tempest", "station", "sensor",
}

// Weather provides current conditions and forecasts from a weather API
// that accepts natural-language prompts on /weather/query.
type Weather struct {
	apiURL  string
	timeout time.Duration
	enabled bool
	client  *http.Client
	logger  *slog.Logger
}

// NewWeather creates the weather tool from its configuration.
func NewWeather(cfg config.ToolConfig, logger *slog.Logger) *Weather {
	if logger == nil {
		logger = slog.Default()
	}
	return &Weather{
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		timeout: cfg.Timeout(),
		enabled: cfg.Enabled,
		client:  httpkit.NewClient(httpkit.WithTimeout(cfg.Timeout())),
		logger:  logger,
	}
}

// Name implements Tool.
func (w *Weather) Name() string { return "weather" }

// Description implements Tool.
func (w *Weather) Description() string {
	return "Weather tool - provides current conditions and forecasts from the weather API"
}

// Keywords implements Tool.
func (w *Weather) Keywords() []string { return weatherKeywords }

// RequiredConfig implements Tool.
func (w *Weather) RequiredConfig() []string { return []string{"api_url"} }

// Enabled implements Tool.
func (w *Weather) Enabled() bool { return w.enabled }

// Available implements Tool.
func (w *Weather) Available() bool { return w.enabled && w.apiURL != "" }

// Timeout implements Tool.
func (w *Weather) Timeout() time.Duration { return w.timeout }

// CanHandle implements Tool.
func (w *Weather) CanHandle(query string) bool {
	if !w.Available() {
		return false
	}
	kw, ok := matchKeyword(query, weatherKeywords)
	if ok {
		w.logger.Debug("weather tool matched keyword", "keyword", kw)
	}
	return ok
}

// weatherQuery is the request body for the /weather/query endpoint.
type weatherQuery struct {
	Prompt          string `json:"prompt"`
	IncludeCurrent  bool   `json:"include_current"`
	IncludeForecast bool   `json:"include_forecast"`
	Broadcast       bool   `json:"broadcast"`
}

// weatherResponse is the /weather/query wire response.
type weatherResponse struct {
	Success      bool   `json:"success"`
	ResponseText string `json:"response_text"`
	Timestamp    string `json:"timestamp"`
	Message      string `json:"message"`
}

// WeatherReport is the Data payload of a successful weather Result.
type WeatherReport struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// Execute implements Tool. It posts the raw query to the weather API's
// natural-language endpoint.
func (w *Weather) Execute(ctx context.Context, query string) Result {
	if !w.Available() {
		return failure(w.Name(), fmt.Sprintf("weather %v", ErrNotConfigured))
	}

	body, err := json.Marshal(weatherQuery{
		Prompt:          query,
		IncludeCurrent:  true,
		IncludeForecast: true,
		Broadcast:       false,
	})
	if err != nil {
		return failure(w.Name(), fmt.Sprintf("weather API error: %v", err))
	}

	endpoint := w.apiURL + "/weather/query"
	w.logger.Debug("calling weather API", "endpoint", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failure(w.Name(), fmt.Sprintf("weather API error: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return failure(w.Name(), errorMessage(err, "weather", w.apiURL, w.timeout))
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return failure(w.Name(), fmt.Sprintf("weather API returned error: %d", resp.StatusCode))
	}

	var payload weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return failure(w.Name(), fmt.Sprintf("weather API error: malformed response: %v", err))
	}

	if !payload.Success {
		msg := payload.Message
		if msg == "" {
			msg = "unknown error from weather API"
		}
		return failure(w.Name(), msg)
	}

	res := success(w.Name(), &WeatherReport{
		Response:  payload.ResponseText,
		Timestamp: payload.Timestamp,
	})
	res.Metadata["api_url"] = w.apiURL
	return res
}

// HealthCheck implements Tool. It probes the weather status endpoint.
func (w *Weather) HealthCheck(ctx context.Context) bool {
	if !w.Available() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"/weather/status", nil)
	if err != nil {
		return false
	}
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("weather health check failed", "error", err)
		return false
	}
	httpkit.DrainAndClose(resp.Body, 4096)
	return resp.StatusCode == http.StatusOK
}

// FormatForLLM implements Tool.
func (w *Weather) FormatForLLM(res Result) string {
	if !res.Success {
		return fmt.Sprintf("\n\n[Weather data unavailable: %s]", res.Error)
	}

	report, ok := res.Data.(*WeatherReport)
	if !ok {
		return "\n\n[Weather data unavailable: unexpected payload]"
	}

	return fmt.Sprintf(`

---
WEATHER INFORMATION:
%s

Timestamp: %s
---

Use the weather information above to answer the user's question about weather conditions.
`, report.Response, report.Timestamp)
}

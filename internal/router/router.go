// Package router implements capability routing: matching a free-text
// query against the registered providers, executing every match
// concurrently with per-tool timeouts, and merging the formatted
// results into a single context block for a downstream generator or
// speech layer.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hlab/insight-tools/internal/tools"
)

// ceilingSlack pads the router-level wait beyond the largest per-tool
// timeout so a tool's own deadline always fires first.
const ceilingSlack = 2 * time.Second

// healthProbeTimeout bounds each tool's reachability probe.
const healthProbeTimeout = 5 * time.Second

// RouteResult is the merged outcome of one routed query.
type RouteResult struct {
	// Context is the concatenated formatted output of every attempted
	// tool, in registration order. Empty when no tool matched.
	Context string `json:"context"`
	// Raw maps tool name to its normalized result for every attempted
	// tool, including failures and timeouts.
	Raw map[string]tools.Result `json:"raw"`
	// Used lists the tools that executed successfully, in registration
	// order.
	Used []string `json:"used"`
	// RequestID correlates log lines and result metadata for one call.
	RequestID string `json:"request_id"`
}

// ToolInfo describes one registered tool for status surfaces.
type ToolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Available   bool     `json:"available"`
	Keywords    []string `json:"keywords"`
}

// Router owns the provider registry. It is built once at startup and
// read-only afterwards: concurrent Route calls are safe because each
// call owns its own result buffers.
type Router struct {
	registry []tools.Tool
	enabled  bool
	logger   *slog.Logger
}

// New constructs a router over an explicit tool list. enabled is the
// master switch: a disabled router matches nothing. Registration order
// is preserved and determines merge order.
func New(enabled bool, logger *slog.Logger, toolList ...tools.Tool) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		registry: toolList,
		enabled:  enabled,
		logger:   logger,
	}

	for _, t := range toolList {
		if t.Enabled() && !t.Available() {
			logger.Warn("tool enabled but missing required config, treating as unavailable",
				"tool", t.Name(),
				"required", t.RequiredConfig(),
			)
			continue
		}
		if t.Available() {
			logger.Info("tool registered", "tool", t.Name())
		} else {
			logger.Debug("tool disabled in configuration", "tool", t.Name())
		}
	}

	return r
}

// ActiveTools returns the names of currently available tools, in
// registration order.
func (r *Router) ActiveTools() []string {
	var names []string
	for _, t := range r.registry {
		if t.Available() {
			names = append(names, t.Name())
		}
	}
	return names
}

// Route matches the query against the registry and executes every
// matching available tool concurrently. It never returns an error:
// tool failures and timeouts become failure entries in Raw, and a
// query matching nothing yields an empty context.
func (r *Router) Route(ctx context.Context, query string) RouteResult {
	res := RouteResult{
		Raw:       make(map[string]tools.Result),
		RequestID: uuid.NewString(),
	}

	if !r.enabled {
		return res
	}

	var matched []tools.Tool
	for _, t := range r.registry {
		if t.Available() && t.CanHandle(query) {
			matched = append(matched, t)
		}
	}

	if len(matched) == 0 {
		r.logger.Debug("no tools matched query", "request_id", res.RequestID)
		return res
	}

	names := make([]string, len(matched))
	for i, t := range matched {
		names[i] = t.Name()
	}
	r.logger.Info("query matched tools", "request_id", res.RequestID, "tools", names)

	results := r.executeAll(ctx, matched, query, res.RequestID)

	// Merge in registration order so output is reproducible regardless
	// of completion order.
	var parts []string
	for i, t := range matched {
		result := results[i]
		res.Raw[t.Name()] = result
		if result.Success {
			res.Used = append(res.Used, t.Name())
		} else {
			r.logger.Warn("tool failed", "request_id", res.RequestID, "tool", t.Name(), "error", result.Error)
		}
		if formatted := t.FormatForLLM(result); formatted != "" {
			parts = append(parts, formatted)
		}
	}
	res.Context = strings.Join(parts, "\n")

	return res
}

// executeAll fans out the matched tools as one concurrent batch and
// joins them under a ceiling wait. A tool that outlives its own
// timeout is recorded as a timeout failure and abandoned; its
// goroutine is cancelled best-effort but never blocks the batch.
func (r *Router) executeAll(ctx context.Context, matched []tools.Tool, query, requestID string) []tools.Result {
	ceiling := time.Duration(0)
	for _, t := range matched {
		if t.Timeout() > ceiling {
			ceiling = t.Timeout()
		}
	}
	ceiling += ceilingSlack

	batchCtx, cancel := context.WithTimeout(ctx, ceiling)
	defer cancel()

	chans := make([]chan tools.Result, len(matched))
	for i, t := range matched {
		ch := make(chan tools.Result, 1)
		chans[i] = ch
		go func(t tools.Tool, ch chan<- tools.Result) {
			ch <- r.executeOne(batchCtx, t, query, requestID)
		}(t, ch)
	}

	results := make([]tools.Result, len(matched))
	for i, t := range matched {
		select {
		case res := <-chans[i]:
			results[i] = res
		case <-batchCtx.Done():
			// Once the ceiling expires Done stays closed, and select
			// picks randomly between a closed Done and a ready result
			// channel. A delivered result must always win over the
			// timeout verdict.
			select {
			case res := <-chans[i]:
				results[i] = res
			default:
				results[i] = tools.Result{
					Success: false,
					Error:   fmt.Sprintf("%s tool timed out after %d seconds", t.Name(), int(t.Timeout().Seconds())),
					Metadata: map[string]any{
						"tool":       t.Name(),
						"request_id": requestID,
					},
				}
			}
		}
	}
	return results
}

// executeOne runs a single tool with its own timeout and converts any
// panic into a failure result — nothing escapes the provider boundary.
func (r *Router) executeOne(ctx context.Context, t tools.Tool, query, requestID string) (res tools.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", t.Name(), "panic", rec)
			res = tools.Result{
				Success:  false,
				Error:    fmt.Sprintf("%s tool failed: internal error", t.Name()),
				Metadata: map[string]any{"tool": t.Name(), "request_id": requestID},
			}
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, t.Timeout())
	defer cancel()

	start := time.Now()
	res = t.Execute(callCtx, query)
	elapsed := time.Since(start)

	if res.Metadata == nil {
		res.Metadata = make(map[string]any)
	}
	res.Metadata["request_id"] = requestID
	res.Metadata["duration_ms"] = elapsed.Milliseconds()

	r.logger.Debug("tool executed",
		"request_id", requestID,
		"tool", t.Name(),
		"success", res.Success,
		"duration", elapsed,
	)
	return res
}

// Health probes every registered tool's backend, returning tool name
// to reachability. Probes run sequentially; each is bounded by
// healthProbeTimeout inside the tool.
func (r *Router) Health(ctx context.Context) map[string]bool {
	status := make(map[string]bool, len(r.registry))
	for _, t := range r.registry {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		status[t.Name()] = t.HealthCheck(probeCtx)
		cancel()
	}
	return status
}

// Info describes every registered tool for an external monitoring
// surface.
func (r *Router) Info() []ToolInfo {
	infos := make([]ToolInfo, 0, len(r.registry))
	for _, t := range r.registry {
		infos = append(infos, ToolInfo{
			Name:        t.Name(),
			Description: t.Description(),
			Enabled:     t.Enabled(),
			Available:   t.Available(),
			Keywords:    t.Keywords(),
		})
	}
	return infos
}

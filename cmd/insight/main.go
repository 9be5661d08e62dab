// Insight routes free-text queries to capability providers (weather,
// quotes, calendar) and merges their output into a single context
// block suitable for injection into an LLM prompt.
//
// Configuration is loaded from a YAML file discovered automatically
// (see [config.DefaultSearchPaths]) or, with --env, assembled purely
// from environment variables. A .env file in the working directory is
// loaded first either way.
//
// Usage:
//
//	insight route <query>     Route a query through all matching tools
//	insight analyze <query>   Run only the calendar analyzer
//	insight status            Show tool registry and backend health
//	insight version           Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/hlab/insight-tools/internal/buildinfo"
	"github.com/hlab/insight-tools/internal/calendar"
	"github.com/hlab/insight-tools/internal/config"
	"github.com/hlab/insight-tools/internal/router"
	"github.com/hlab/insight-tools/internal/tools"
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. OS-level dependencies (context, stdio,
// argv) are injected so the full command surface can be driven from
// tests without touching process globals.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "insight",
		Usage: "Route queries to capability providers and merge their context.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the YAML configuration file.",
			},
			&cli.BoolFlag{
				Name:  "env",
				Usage: "Build configuration from environment variables only.",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "Output format: text or json.",
			},
		},
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			routeCommand(stdout),
			analyzeCommand(stdout),
			statusCommand(stdout),
			versionCommand(stdout),
		},
	}

	return app.RunContext(ctx, args)
}

// loadConfig resolves the configuration source for a command: --env
// forces environment-only, --config names a file explicitly, and
// otherwise the default search paths are tried with an environment
// fallback.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if c.Bool("env") {
		return config.FromEnv()
	}

	path, err := config.FindConfig(c.String("config"))
	if err != nil {
		// No file anywhere: fall back to the environment surface.
		if c.String("config") != "" {
			return nil, err
		}
		return config.FromEnv()
	}
	return config.Load(path)
}

func setupLogger(stderr io.Writer, level string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)
	return logger
}

// buildRouter wires the full provider registry from configuration:
// calendar repository, analyzer, and the three concrete tools.
func buildRouter(cfg *config.Config, logger *slog.Logger) (*router.Router, *calendar.Analyzer, error) {
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid calendar timezone: %w", err)
	}

	var repo calendar.Repository
	switch cfg.Calendar.Source {
	case config.SourceCalDAV:
		repo, err = calendar.NewCalDAVRepository(
			cfg.Calendar.CalDAV.Endpoint,
			cfg.Calendar.CalDAV.Username,
			cfg.Calendar.CalDAV.Password,
			cfg.Calendar.CalDAV.CalendarName,
			loc, logger,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("caldav repository: %w", err)
		}
	default:
		repo = calendar.NewICSRepository(cfg.Tools.Calendar.APIURL, cfg.Tools.Calendar.Timeout(), loc, logger)
	}

	analyzer, err := calendar.NewAnalyzer(repo, cfg.Calendar.Timezone, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("calendar analyzer: %w", err)
	}

	registry := []tools.Tool{
		tools.NewWeather(cfg.Tools.Weather, logger),
		tools.NewQuotes(cfg.Tools.Quotes, logger),
		tools.NewCalendar(analyzer, cfg.Tools.Calendar.Timeout(), cfg.Tools.Calendar.Enabled, logger),
	}

	return router.New(cfg.Tools.Enabled, logger, registry...), analyzer, nil
}

func routeCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "route",
		Usage:     "Route a query through every matching tool and print the merged context.",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return fmt.Errorf("route requires a query argument")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := setupLogger(c.App.ErrWriter, cfg.LogLevel)

			r, _, err := buildRouter(cfg, logger)
			if err != nil {
				return err
			}

			result := r.Route(c.Context, query)

			if c.String("output") == "json" {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if result.Context == "" {
				fmt.Fprintln(stdout, "No tools matched the query.")
				return nil
			}
			fmt.Fprintln(stdout, result.Context)
			return nil
		},
	}
}

func analyzeCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Run only the calendar analyzer against a query.",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := setupLogger(c.App.ErrWriter, cfg.LogLevel)

			_, analyzer, err := buildRouter(cfg, logger)
			if err != nil {
				return err
			}

			analysis := analyzer.Analyze(c.Context, query)

			if c.String("output") == "json" {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(analysis)
			}

			fmt.Fprintln(stdout, analysis.FormattedText)
			if !analysis.Success {
				return fmt.Errorf("calendar analysis failed: %s", analysis.Error)
			}
			return nil
		},
	}
}

func statusCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the tool registry and probe each backend's health.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := setupLogger(c.App.ErrWriter, cfg.LogLevel)

			r, _, err := buildRouter(cfg, logger)
			if err != nil {
				return err
			}

			health := r.Health(c.Context)
			infos := r.Info()

			if c.String("output") == "json" {
				out := struct {
					Tools  []router.ToolInfo `json:"tools"`
					Health map[string]bool   `json:"health"`
				}{infos, health}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			for _, info := range infos {
				state := "disabled"
				if info.Available {
					state = "available"
					if !health[info.Name] {
						state = "unreachable"
					}
				} else if info.Enabled {
					state = "misconfigured"
				}
				fmt.Fprintf(stdout, "%-10s %-13s %s\n", info.Name, state, info.Description)
			}
			return nil
		},
	}
}

func versionCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version and build information.",
		Action: func(c *cli.Context) error {
			if c.String("output") == "json" {
				out := map[string]string{
					"version":    buildinfo.Version,
					"git_commit": buildinfo.GitCommit,
					"build_time": buildinfo.BuildTime,
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprintf(stdout, "insight %s (%s) built %s\n",
				buildinfo.Version, buildinfo.GitCommit, buildinfo.BuildTime)
			return nil
		},
	}
}

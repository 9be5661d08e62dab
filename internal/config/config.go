// Package config handles insight-tools configuration loading.
//
// Configuration is built exactly once at startup — either from a YAML
// file (with ${VAR} environment expansion) or straight from environment
// variables — and passed into constructors. Business logic never reads
// the environment directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout is the per-tool request timeout when none is configured.
const DefaultTimeout = 10 * time.Second

// DefaultTimezone is the IANA zone used when none is configured.
const DefaultTimezone = "America/Denver"

// Calendar repository backends.
const (
	SourceICS    = "ics"
	SourceCalDAV = "caldav"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/insight/config.yaml, /etc/insight/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "insight", "config.yaml"))
	}

	paths = append(paths, "/etc/insight/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all insight-tools configuration.
type Config struct {
	Tools    ToolsConfig    `yaml:"tools"`
	Calendar CalendarConfig `yaml:"calendar"`
	LogLevel string         `yaml:"log_level"`
}

// ToolsConfig defines the capability router and its providers.
// Enabled is the master switch: when false the router matches nothing,
// regardless of individual tool flags.
type ToolsConfig struct {
	Enabled  bool         `yaml:"enabled"`
	Weather  ToolConfig   `yaml:"weather"`
	Quotes   QuotesConfig `yaml:"quotes"`
	Calendar ToolConfig   `yaml:"calendar"`
}

// ToolConfig defines a single provider's settings.
type ToolConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIURL     string `yaml:"api_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout returns the per-call timeout, applying the default when unset.
func (t ToolConfig) Timeout() time.Duration {
	if t.TimeoutSec <= 0 {
		return DefaultTimeout
	}
	return time.Duration(t.TimeoutSec) * time.Second
}

// QuotesConfig extends ToolConfig with an optional direct feed source.
// When FeedURL is set, quotes are pulled from the RSS/Atom feed itself
// instead of the quotes HTTP API.
type QuotesConfig struct {
	ToolConfig `yaml:",inline"`
	FeedURL    string `yaml:"feed_url"`
}

// CalendarConfig defines the calendar analyzer settings.
type CalendarConfig struct {
	// Timezone is the IANA zone for date math and display (default America/Denver).
	Timezone string `yaml:"timezone"`
	// Source selects the repository backend: "ics" (default) or "caldav".
	Source string       `yaml:"source"`
	CalDAV CalDAVConfig `yaml:"caldav"`
}

// CalDAVConfig defines the CalDAV repository connection.
type CalDAVConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	CalendarName string `yaml:"calendar_name"`
}

// Location resolves the configured timezone, falling back to the default.
// An unparseable zone is an error — date arithmetic must never silently
// run in UTC.
func (c CalendarConfig) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the documented environment surface:
//
//	TOOLS_ENABLED                master switch (default false)
//	TOOL_<NAME>_ENABLED          per tool (default false)
//	TOOL_<NAME>_API_URL          required when the tool is enabled
//	TOOL_<NAME>_TIMEOUT          seconds (default 10)
//	TOOL_QUOTES_FEED_URL         optional direct feed source
//	CALENDAR_TIMEZONE            IANA zone (default America/Denver)
//	CALENDAR_SOURCE              "ics" or "caldav"
//	CALDAV_ENDPOINT, CALDAV_USERNAME, CALDAV_PASSWORD, CALDAV_CALENDAR
//	LOG_LEVEL
func FromEnv() (*Config, error) {
	cfg := &Config{
		Tools: ToolsConfig{
			Enabled:  envBool("TOOLS_ENABLED"),
			Weather:  toolFromEnv("WEATHER"),
			Calendar: toolFromEnv("CALENDAR"),
			Quotes: QuotesConfig{
				ToolConfig: toolFromEnv("QUOTES"),
				FeedURL:    os.Getenv("TOOL_QUOTES_FEED_URL"),
			},
		},
		Calendar: CalendarConfig{
			Timezone: os.Getenv("CALENDAR_TIMEZONE"),
			Source:   os.Getenv("CALENDAR_SOURCE"),
			CalDAV: CalDAVConfig{
				Endpoint:     os.Getenv("CALDAV_ENDPOINT"),
				Username:     os.Getenv("CALDAV_USERNAME"),
				Password:     os.Getenv("CALDAV_PASSWORD"),
				CalendarName: os.Getenv("CALDAV_CALENDAR"),
			},
		},
		LogLevel: os.Getenv("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs construction-time checks. A tool that is enabled but
// missing required config is not fatal here — it is reported as
// unavailable by the tool itself and never invoked.
func (c *Config) Validate() error {
	if _, err := c.Calendar.Location(); err != nil {
		return err
	}
	switch c.Calendar.Source {
	case "", SourceICS, SourceCalDAV:
	default:
		return fmt.Errorf("unknown calendar source %q (valid: ics, caldav)", c.Calendar.Source)
	}
	return nil
}

func toolFromEnv(name string) ToolConfig {
	return ToolConfig{
		Enabled:    envBool("TOOL_" + name + "_ENABLED"),
		APIURL:     os.Getenv("TOOL_" + name + "_API_URL"),
		TimeoutSec: envInt("TOOL_" + name + "_TIMEOUT"),
	}
}

func envBool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

func envInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestToolConfigTimeout(t *testing.T) {
	tests := []struct {
		name string
		sec  int
		want time.Duration
	}{
		{"default when zero", 0, 10 * time.Second},
		{"default when negative", -5, 10 * time.Second},
		{"explicit", 30, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ToolConfig{TimeoutSec: tt.sec}
			if got := cfg.Timeout(); got != tt.want {
				t.Errorf("Timeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalendarConfigLocation(t *testing.T) {
	t.Run("default timezone", func(t *testing.T) {
		loc, err := CalendarConfig{}.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc.String() != DefaultTimezone {
			t.Errorf("Location() = %q, want %q", loc.String(), DefaultTimezone)
		}
	})

	t.Run("explicit timezone", func(t *testing.T) {
		loc, err := CalendarConfig{Timezone: "Europe/Berlin"}.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc.String() != "Europe/Berlin" {
			t.Errorf("Location() = %q, want Europe/Berlin", loc.String())
		}
	})

	t.Run("invalid timezone", func(t *testing.T) {
		if _, err := (CalendarConfig{Timezone: "Mars/Olympus"}).Location(); err == nil {
			t.Error("Location() expected error for bogus zone, got nil")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Setenv("INSIGHT_TEST_WEATHER_URL", "http://weather.local:8000")

	yaml := `
tools:
  enabled: true
  weather:
    enabled: true
    api_url: ${INSIGHT_TEST_WEATHER_URL}
    timeout_sec: 15
  quotes:
    enabled: true
    api_url: http://quotes.local:9000
    feed_url: http://quotes.local/feed.xml
  calendar:
    enabled: false
calendar:
  timezone: America/Chicago
  source: ics
log_level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Tools.Enabled {
		t.Error("Tools.Enabled = false, want true")
	}
	if got := cfg.Tools.Weather.APIURL; got != "http://weather.local:8000" {
		t.Errorf("Weather.APIURL = %q, want expanded env value", got)
	}
	if got := cfg.Tools.Weather.Timeout(); got != 15*time.Second {
		t.Errorf("Weather.Timeout() = %v, want 15s", got)
	}
	if got := cfg.Tools.Quotes.FeedURL; got != "http://quotes.local/feed.xml" {
		t.Errorf("Quotes.FeedURL = %q", got)
	}
	if cfg.Tools.Calendar.Enabled {
		t.Error("Calendar.Enabled = true, want false")
	}
	if got := cfg.Calendar.Timezone; got != "America/Chicago" {
		t.Errorf("Calendar.Timezone = %q, want America/Chicago", got)
	}
	if got := cfg.LogLevel; got != "debug" {
		t.Errorf("LogLevel = %q, want debug", got)
	}
}

func TestLoadRejectsBadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("calendar:\n  source: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for unknown calendar source, got nil")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TOOLS_ENABLED", "true")
	t.Setenv("TOOL_WEATHER_ENABLED", "TRUE")
	t.Setenv("TOOL_WEATHER_API_URL", "http://weather.local:8000")
	t.Setenv("TOOL_WEATHER_TIMEOUT", "20")
	t.Setenv("TOOL_QUOTES_ENABLED", "false")
	t.Setenv("TOOL_CALENDAR_ENABLED", "true")
	t.Setenv("TOOL_CALENDAR_API_URL", "http://calendar.local:8080")
	t.Setenv("CALENDAR_TIMEZONE", "UTC")
	t.Setenv("CALENDAR_SOURCE", "ics")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if !cfg.Tools.Enabled {
		t.Error("Tools.Enabled = false, want true")
	}
	if !cfg.Tools.Weather.Enabled {
		t.Error("Weather.Enabled = false, want true (case-insensitive TRUE)")
	}
	if got := cfg.Tools.Weather.Timeout(); got != 20*time.Second {
		t.Errorf("Weather.Timeout() = %v, want 20s", got)
	}
	if cfg.Tools.Quotes.Enabled {
		t.Error("Quotes.Enabled = true, want false")
	}
	if got := cfg.Tools.Calendar.APIURL; got != "http://calendar.local:8080" {
		t.Errorf("Calendar.APIURL = %q", got)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	// Unset everything this test cares about.
	for _, key := range []string{
		"TOOLS_ENABLED", "TOOL_WEATHER_ENABLED", "TOOL_WEATHER_TIMEOUT",
		"CALENDAR_TIMEZONE", "CALENDAR_SOURCE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.Tools.Enabled {
		t.Error("Tools.Enabled = true, want false by default")
	}
	if got := cfg.Tools.Weather.Timeout(); got != DefaultTimeout {
		t.Errorf("Weather.Timeout() = %v, want default %v", got, DefaultTimeout)
	}
	loc, err := cfg.Calendar.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Errorf("default Location() = %q, want %q", loc.String(), DefaultTimezone)
	}
}

func TestFindConfig(t *testing.T) {
	t.Run("explicit missing", func(t *testing.T) {
		if _, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("FindConfig() expected error for missing explicit path")
		}
	})

	t.Run("explicit present", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := FindConfig(path)
		if err != nil {
			t.Fatalf("FindConfig() error = %v", err)
		}
		if got != path {
			t.Errorf("FindConfig() = %q, want %q", got, path)
		}
	})
}

package tools

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
	"time"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"deadline exceeded",
			context.DeadlineExceeded,
			"weather API request timed out after 10 seconds",
		},
		{
			"wrapped deadline",
			&url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded},
			"weather API request timed out after 10 seconds",
		},
		{
			"connection refused",
			&net.OpError{Op: "dial", Err: errors.New("connection refused")},
			"cannot connect to weather service at http://weather.local",
		},
		{
			"dns failure",
			&net.DNSError{Name: "weather.local", Err: "no such host"},
			"cannot connect to weather service at http://weather.local",
		},
		{
			"other error",
			errors.New("malformed response"),
			"weather API error: malformed response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorMessage(tt.err, "weather", "http://weather.local", 10*time.Second)
			if got != tt.want {
				t.Errorf("errorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchKeyword(t *testing.T) {
	keywords := []string{"weather", "forecast", "uv index"}

	tests := []struct {
		query   string
		wantKw  string
		wantHit bool
	}{
		{"what's the WEATHER", "weather", true},
		{"check the uv index please", "uv index", true},
		{"weatherproof jacket review", "weather", true}, // substring matching, no word bounds
		{"show my calendar", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			kw, ok := matchKeyword(tt.query, keywords)
			if ok != tt.wantHit || kw != tt.wantKw {
				t.Errorf("matchKeyword(%q) = (%q, %v), want (%q, %v)", tt.query, kw, ok, tt.wantKw, tt.wantHit)
			}
		})
	}
}

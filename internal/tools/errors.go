package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ErrNotConfigured marks a tool that is enabled but missing required
// configuration. Such tools are reported unavailable and never invoked;
// this is not a runtime failure.
var ErrNotConfigured = errors.New("tool is not available or not configured")

// errorMessage maps a transport-level error to one of the distinct
// failure messages of the taxonomy: timeout, connection, or upstream.
func errorMessage(err error, tool, apiURL string, timeout time.Duration) string {
	if isTimeout(err) {
		return fmt.Sprintf("%s API request timed out after %d seconds", tool, int(timeout.Seconds()))
	}
	if isConnection(err) {
		return fmt.Sprintf("cannot connect to %s service at %s", tool, apiURL)
	}
	return fmt.Sprintf("%s API error: %v", tool, err)
}

// isTimeout reports whether err is a deadline or timeout failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isConnection reports whether err is a connection-level failure
// (unreachable host, refused connection, DNS failure).
func isConnection(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// url.Error wraps dial failures; timeouts were handled above.
		return !urlErr.Timeout()
	}
	return false
}

package resilience

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry (timeouts, 429/5xx,
// connection resets). Collaborator clients wrap their failures with it so
// the shared retry policy can distinguish outages from permanent rejections.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// MarkTransient wraps err as transient, optionally recording the HTTP
// status that triggered it.
func MarkTransient(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether err (or anything in its chain) is retryable:
// an explicit TransientError, a network timeout, or a connection-level
// failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped errors from HTTP clients lose their type; fall back to
	// message matching.
	msg := strings.ToLower(err.Error())

	// Collaborator clients format HTTP failures as "...: status 503: ...".
	if code := statusInMessage(msg); IsTransientHTTPStatus(code) {
		return true
	}

	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"context deadline exceeded",
		"too many requests",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
		"internal server error",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// statusInMessage extracts an HTTP status code from error text of the form
// "...: status 503: ...". Returns 0 when no code is present.
func statusInMessage(msg string) int {
	idx := strings.Index(msg, "status ")
	if idx < 0 {
		return 0
	}
	rest := msg[idx+len("status "):]
	if len(rest) < 3 {
		return 0
	}
	code, err := strconv.Atoi(rest[:3])
	if err != nil {
		return 0
	}
	return code
}

// IsTransientHTTPStatus reports whether an HTTP status indicates a
// server-side condition that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

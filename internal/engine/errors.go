package engine

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNoMatch is returned when no video in the search window matches the
// configured title pattern.
var ErrNoMatch = errors.New("no video matched the title pattern")

// StatusError wraps a non-2xx HTTP response from an upstream API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("http %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("http %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// MalformedResponseError is returned when an upstream response parses as
// valid transport payload but is missing the fields the pipeline consumes.
// Never retried.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Endpoint, e.Reason)
}

// CacheError is a transcript cache storage failure. The pipeline logs these
// and carries on; they never abort a run.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// PartialDeliveryError reports a notification that failed mid-sequence:
// Delivered chunks were already posted before the failure, the remaining
// ones were not attempted.
type PartialDeliveryError struct {
	Delivered int
	Total     int
	Err       error
}

func (e *PartialDeliveryError) Error() string {
	return fmt.Sprintf("webhook delivery failed after %d/%d chunks: %v", e.Delivered, e.Total, e.Err)
}

func (e *PartialDeliveryError) Unwrap() error { return e.Err }

// Retryable reports whether err is transient: a retried invocation of the
// whole run has a chance of succeeding. Used for retry decisions and for the
// process exit code.
func Retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}

	// Connection errors (dial failures, connection refused, resets)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Timeouts (net.Error includes OpError, so check after OpError)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// Category buckets an error for the final log line.
func Category(err error) string {
	var cacheErr *CacheError
	var malformedErr *MalformedResponseError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNoMatch):
		return "not_found"
	case errors.As(err, &cacheErr):
		return "cache"
	case errors.As(err, &malformedErr):
		return "parse"
	case Retryable(err):
		return "transient"
	default:
		return "permanent"
	}
}

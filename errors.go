package teer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for construction and configuration failures.
var (
	// ErrMissingAPIKey is returned by New when no API key is supplied.
	ErrMissingAPIKey = errors.New("teer: missing API key")

	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("teer: invalid configuration")

	// ErrInvalidRequest is returned when a request cannot be sent at all.
	ErrInvalidRequest = errors.New("teer: invalid request")

	// ErrInvalidPayload wraps resource payload validation failures.
	ErrInvalidPayload = errors.New("teer: invalid payload")

	// ErrMalformedResponse is returned when a 2xx response declares JSON but
	// its body does not parse. It is never retried.
	ErrMalformedResponse = errors.New("teer: malformed JSON response")
)

// ErrorKind tags the error taxonomy returned by the executor.
type ErrorKind string

const (
	KindAPI     ErrorKind = "api_error"
	KindTimeout ErrorKind = "timeout_error"
	KindNetwork ErrorKind = "network_error"
)

// Error is implemented by every error the executor returns for a failed call.
type Error interface {
	error
	Kind() ErrorKind
	RequestContext() RequestContext
}

var (
	_ Error = (*APIError)(nil)
	_ Error = (*TimeoutError)(nil)
	_ Error = (*NetworkError)(nil)
)

// RequestContext is a read-only snapshot of the call that produced an error.
// The Authorization header is redacted.
type RequestContext struct {
	Method    string
	Path      string
	BaseURL   string
	URL       string
	RequestID string
	Header    http.Header
}

// APIError reports a non-2xx response from the service.
type APIError struct {
	StatusCode int
	StatusText string
	Message    string
	// Body is the decoded JSON payload, or the raw text when the response was
	// not JSON.
	Body     any
	RawBody  []byte
	Header   http.Header
	Request  RequestContext
	Attempts int
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("teer: %d %s: %s", e.StatusCode, e.StatusText, e.Message)
}

// Kind implements Error.
func (e *APIError) Kind() ErrorKind { return KindAPI }

// RequestContext implements Error.
func (e *APIError) RequestContext() RequestContext { return e.Request }

// IsServerError reports a 5xx status.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsClientError reports a 4xx status.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsRateLimitError reports a 429 status.
func (e *APIError) IsRateLimitError() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// TimeoutError reports that an attempt did not finish within the configured bound.
type TimeoutError struct {
	Timeout  time.Duration
	Request  RequestContext
	Attempts int
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("teer: request timed out after %v", e.Timeout)
}

// Kind implements Error.
func (e *TimeoutError) Kind() ErrorKind { return KindTimeout }

// RequestContext implements Error.
func (e *TimeoutError) RequestContext() RequestContext { return e.Request }

// NetworkError reports a failure before any HTTP response was received.
type NetworkError struct {
	Cause    error
	Request  RequestContext
	Attempts int
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return "teer: network error"
	}
	return fmt.Sprintf("teer: network error: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Kind implements Error.
func (e *NetworkError) Kind() ErrorKind { return KindNetwork }

// RequestContext implements Error.
func (e *NetworkError) RequestContext() RequestContext { return e.Request }

// KindOf returns the kind of the first teer Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var te Error
	if errors.As(err, &te) {
		return te.Kind(), true
	}
	return "", false
}

// IsTransient reports whether err describes a failure that a later attempt could
// plausibly avoid: timeouts, connectivity failures, 5xx and 429 responses.
// Cancellation by the caller is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError() || apiErr.IsRateLimitError()
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// DebugInfo renders a multi-line string with diagnostic context for err.
func DebugInfo(err error) string {
	if err == nil {
		return "Error: <nil>"
	}

	var te Error
	if !errors.As(err, &te) {
		return fmt.Sprintf("Error: %v\n", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error Kind: %s\n", te.Kind())
	fmt.Fprintf(&b, "Message: %s\n", te.Error())

	rc := te.RequestContext()
	if rc.RequestID != "" {
		fmt.Fprintf(&b, "Request ID: %s\n", rc.RequestID)
	}
	if rc.Method != "" {
		fmt.Fprintf(&b, "Method: %s\n", rc.Method)
	}
	if rc.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", rc.URL)
	}
	if rc.BaseURL != "" {
		fmt.Fprintf(&b, "Base URL: %s\n", rc.BaseURL)
	}
	if rc.Path != "" {
		fmt.Fprintf(&b, "Path: %s\n", rc.Path)
	}

	switch e := te.(type) {
	case *APIError:
		fmt.Fprintf(&b, "Status Code: %d\n", e.StatusCode)
		fmt.Fprintf(&b, "Attempts: %d\n", e.Attempts)
	case *TimeoutError:
		fmt.Fprintf(&b, "Timeout: %v\n", e.Timeout)
		fmt.Fprintf(&b, "Attempts: %d\n", e.Attempts)
	case *NetworkError:
		fmt.Fprintf(&b, "Attempts: %d\n", e.Attempts)
		if e.Cause != nil {
			fmt.Fprintf(&b, "Cause: %v\n", e.Cause)
		}
	}
	return b.String()
}

// apiErrorMessage picks a human readable message out of an error body:
// the "message" field, then "error", then the whole payload.
func apiErrorMessage(body any, raw []byte) string {
	if m, ok := body.(map[string]any); ok {
		for _, key := range []string{"message", "error"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
		if len(raw) > 0 {
			return strings.TrimSpace(string(raw))
		}
		if data, err := json.Marshal(m); err == nil {
			return string(data)
		}
	}
	if s, ok := body.(string); ok {
		return s
	}
	return strings.TrimSpace(string(raw))
}

package teer

import (
	"time"
)

// Namespace is the API version segment inserted between the base URL and the
// resource path.
const Namespace = "v1"

// Library defaults applied when neither the client nor the call sets a value.
const (
	DefaultBaseURL    = "https://api.teer.ai"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 300 * time.Millisecond
)

// Header names used on every request.
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderRequestID     = "X-Request-ID"
	HeaderRetryAfter    = "Retry-After"

	contentTypeJSON = "application/json"
)

// Request describes one logical operation against the API. It is not modified
// by the executor.
type Request struct {
	Method string
	Path   string
	// Body is serialized as JSON when non-nil.
	Body any
}

// RequestConfig is one layer of request settings. Nil fields are "not set"
// and fall through to the next layer during Resolve.
type RequestConfig struct {
	BaseURL    *string
	Timeout    *time.Duration
	MaxRetries *int
	RetryDelay *time.Duration
	Transport  Transport
}

// EffectiveConfig is the fully resolved configuration for a single call.
type EffectiveConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Transport  Transport
}

// Option configures a Client.
type Option func(*Client)

// RequestOption overrides settings for a single call.
type RequestOption func(*RequestConfig)

// String returns a pointer to s.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Duration returns a pointer to d.
func Duration(d time.Duration) *time.Duration { return &d }

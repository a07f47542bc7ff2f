package teer

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// WithBaseURL sets the client-level base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.defaults.BaseURL = String(baseURL)
	}
}

// WithTrackURL sets the base URL used by the tracking resources (ingest, billing)
func WithTrackURL(trackURL string) Option {
	return func(c *Client) {
		c.trackURL = trackURL
	}
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.defaults.Timeout = Duration(d)
	}
}

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.defaults.MaxRetries = Int(n)
	}
}

// WithRetryDelay sets the base delay for exponential backoff
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.defaults.RetryDelay = Duration(d)
	}
}

// WithMaxBackoff caps every computed backoff delay. Zero means no cap.
// Retry-After hints are not capped.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.maxBackoff = d
	}
}

// WithTransport sets the client-level transport
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.defaults.Transport = t
	}
}

// WithHTTPClient sets a custom http.Client as the client-level transport
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.defaults.Transport = NewHTTPTransport(client)
	}
}

// WithLogger sets a custom logger
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables metrics collection on the default Prometheus registerer
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		c.newRequestID = gen
	}
}

// WithRequestBaseURL overrides the base URL for one call
func WithRequestBaseURL(baseURL string) RequestOption {
	return func(rc *RequestConfig) {
		rc.BaseURL = String(baseURL)
	}
}

// WithRequestTimeout overrides the per-attempt timeout for one call
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(rc *RequestConfig) {
		rc.Timeout = Duration(d)
	}
}

// WithRequestMaxRetries overrides the retry count for one call
func WithRequestMaxRetries(n int) RequestOption {
	return func(rc *RequestConfig) {
		rc.MaxRetries = Int(n)
	}
}

// WithRequestRetryDelay overrides the backoff base delay for one call
func WithRequestRetryDelay(d time.Duration) RequestOption {
	return func(rc *RequestConfig) {
		rc.RetryDelay = Duration(d)
	}
}

// WithRequestTransport overrides the transport for one call
func WithRequestTransport(t Transport) RequestOption {
	return func(rc *RequestConfig) {
		rc.Transport = t
	}
}

// WithRequestConfig overlays every non-nil field of cfg for one call
func WithRequestConfig(cfg RequestConfig) RequestOption {
	return func(rc *RequestConfig) {
		*rc = Merge(*rc, cfg.clone())
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateRetryConfig()...)
	errors = append(errors, c.validateURLConfig()...)
	errors = append(errors, c.validateTimeoutConfig()...)
	errors = append(errors, c.validateExtremeValues()...)

	if len(errors) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errors, "; "))
	}

	return nil
}

// validateRetryConfig validates retry-related configuration
func (c *Client) validateRetryConfig() []string {
	var errors []string

	if c.defaults.MaxRetries != nil && *c.defaults.MaxRetries < 0 {
		errors = append(errors, "maxRetries cannot be negative")
	}
	if c.defaults.RetryDelay != nil && *c.defaults.RetryDelay < 0 {
		errors = append(errors, "retryDelay cannot be negative")
	}
	if c.maxBackoff < 0 {
		errors = append(errors, "maxBackoff cannot be negative")
	}

	return errors
}

// validateURLConfig validates the base and track URLs
func (c *Client) validateURLConfig() []string {
	var errors []string

	if c.defaults.BaseURL != nil {
		if msg := checkBaseURL(*c.defaults.BaseURL); msg != "" {
			errors = append(errors, "baseURL "+msg)
		}
	}
	if c.trackURL != "" {
		if msg := checkBaseURL(c.trackURL); msg != "" {
			errors = append(errors, "trackURL "+msg)
		}
	}

	return errors
}

// validateTimeoutConfig validates the per-attempt timeout
func (c *Client) validateTimeoutConfig() []string {
	var errors []string

	if c.defaults.Timeout != nil && *c.defaults.Timeout <= 0 {
		errors = append(errors, "timeout must be positive")
	}

	return errors
}

// validateExtremeValues validates that configuration values are within reasonable bounds
func (c *Client) validateExtremeValues() []string {
	var errors []string

	if c.defaults.MaxRetries != nil && *c.defaults.MaxRetries > 100 {
		errors = append(errors, "maxRetries > 100 may cause excessive resource usage")
	}
	if c.defaults.RetryDelay != nil && *c.defaults.RetryDelay > 10*time.Minute {
		errors = append(errors, "retryDelay > 10m may cause very long delays")
	}
	if c.maxBackoff > time.Hour {
		errors = append(errors, "maxBackoff > 1h may cause extremely long delays")
	}
	if c.defaults.Timeout != nil && *c.defaults.Timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}

	return errors
}

func checkBaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("is not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "must use http or https"
	}
	if u.Host == "" {
		return "must include a host"
	}
	return ""
}

package teer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/teerai/teer-go/internal/backoff"
)

// Client is the entry point to the Teer API. It carries the API key and the
// client-level configuration layer, and executes calls with retries and
// per-attempt timeouts. A Client is immutable after New and safe for
// concurrent use; calls share no mutable state.
type Client struct {
	apiKey     string
	defaults   RequestConfig
	trackURL   string
	maxBackoff time.Duration

	logger         Logger
	metrics        *MetricsCollector
	tracerProvider trace.TracerProvider
	newRequestID   func() string

	backoff backoff.Strategy
	sleep   func(context.Context, time.Duration) error

	// Ingest sends LLM usage events.
	Ingest *IngestService
	// Billing manages billing resources.
	Billing *BillingService
}

// New constructs a Client for apiKey using the provided functional options.
// It returns ErrMissingAPIKey for a blank key and an error wrapping
// ErrInvalidConfig when the options fail validation.
func New(apiKey string, options ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := &Client{
		apiKey:       apiKey,
		logger:       NopLogger(),
		newRequestID: uuid.NewString,
		sleep:        sleepWithContext,
	}

	for _, option := range options {
		option(client)
	}

	if client.logger == nil {
		client.logger = NopLogger()
	}
	if client.newRequestID == nil {
		client.newRequestID = uuid.NewString
	}
	if client.tracerProvider == nil {
		client.tracerProvider = otel.GetTracerProvider()
	}
	client.backoff = backoff.EqualJitter{Max: client.maxBackoff}

	if err := client.ValidateConfiguration(); err != nil {
		return nil, err
	}

	client.Ingest = &IngestService{resource: client.newResource("ingest")}
	client.Billing = &BillingService{
		MeterEvents: &MeterEventsService{resource: client.newResource("billing/meter-events")},
	}

	return client, nil
}

// Do executes method on path with body serialized as JSON and decodes the
// response payload into out. out may be nil; a response without a JSON
// payload leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	raw, err := c.Raw(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	return decodeInto(raw, out)
}

// Raw executes method on path and returns the undecoded JSON payload, or nil
// when the response carried none.
func (c *Client) Raw(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	return c.call(ctx, &Request{Method: method, Path: path, Body: body}, RequestConfig{}, opts)
}

// call resolves the configuration layers for one call and executes it. base
// holds resource-level defaults that per-call options still override.
func (c *Client) call(ctx context.Context, req *Request, base RequestConfig, opts []RequestOption) (json.RawMessage, error) {
	callLayer := base.clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&callLayer)
		}
	}
	return c.Execute(ctx, req, Resolve(LibraryDefaults(), c.defaults, callLayer))
}

// DefaultRequestConfig returns a copy of the client-level configuration layer.
func (c *Client) DefaultRequestConfig() RequestConfig {
	return c.defaults.clone()
}

// APIKey returns the key the client authenticates with.
func (c *Client) APIKey() string {
	return c.apiKey
}

// BaseURL returns the base URL calls use when no per-call override is given.
func (c *Client) BaseURL() string {
	if c.defaults.BaseURL != nil {
		return *c.defaults.BaseURL
	}
	return DefaultBaseURL
}

// TrackURL returns the base URL used by the tracking resources.
func (c *Client) TrackURL() string {
	if c.trackURL != "" {
		return c.trackURL
	}
	return c.BaseURL()
}

func decodeInto(raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("teer: decode response: %w", err)
	}
	return nil
}

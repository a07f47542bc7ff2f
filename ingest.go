package teer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds the number of in-flight calls in SendBatch.
const batchConcurrency = 4

// Supported model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// IngestData is one LLM usage event.
type IngestData struct {
	Provider string `json:"provider" validate:"required,oneof=anthropic openai google"`
	Model    string `json:"model" validate:"required"`
	Usage    Usage  `json:"usage"`

	FunctionID string         `json:"function_id,omitempty"`
	Platform   *Platform      `json:"platform,omitempty"`
	Billing    *BillingConfig `json:"billing,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	TraceID      string `json:"trace_id,omitempty"`
	SpanID       string `json:"span_id,omitempty"`
	ParentSpanID string `json:"parent_span_id,omitempty"`

	// Batch marks events sent as part of a batch operation, which is priced
	// differently.
	Batch bool `json:"batch,omitempty"`
}

// Usage holds token counts.
type Usage struct {
	Input  int         `json:"input" validate:"gte=0"`
	Output int         `json:"output" validate:"gte=0"`
	Cache  *CacheUsage `json:"cache,omitempty"`
}

// CacheUsage holds provider-specific prompt cache counters.
type CacheUsage struct {
	Anthropic *AnthropicCacheUsage `json:"anthropic,omitempty"`
	OpenAI    *OpenAICacheUsage    `json:"openai,omitempty"`
	Google    *GoogleCacheUsage    `json:"google,omitempty"`
}

type AnthropicCacheUsage struct {
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens,omitempty" validate:"omitnil,gte=0"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens,omitempty" validate:"omitnil,gte=0"`
}

type OpenAICacheUsage struct {
	InputCachedTokens *int `json:"input_cached_tokens,omitempty" validate:"omitnil,gte=0"`
}

type GoogleCacheUsage struct {
	CachedContentTokenCount *int `json:"cached_content_token_count,omitempty" validate:"omitnil,gte=0"`
}

// Platform carries Teer-specific pricing metadata.
type Platform struct {
	RateCardID string `json:"rate_card_id" validate:"required"`
}

// BillingConfig forwards the event to a billing provider.
type BillingConfig struct {
	Provider string        `json:"provider" validate:"required,eq=stripe"`
	Fields   BillingFields `json:"fields"`
}

// BillingFields identifies the customer and either a single meter or a set
// of named meters, never both.
type BillingFields struct {
	Customer string            `json:"customer" validate:"required"`
	Email    string            `json:"email,omitempty" validate:"omitempty,email"`
	Meter    string            `json:"meter,omitempty" validate:"required_without=Meters,excluded_with=Meters"`
	Meters   map[string]string `json:"meters,omitempty" validate:"required_without=Meter,excluded_with=Meter"`
}

// IngestService sends usage events to the ingest endpoint.
type IngestService struct {
	resource
}

// Send posts one usage event and returns the raw response payload.
func (s *IngestService) Send(ctx context.Context, data IngestData, opts ...RequestOption) (json.RawMessage, error) {
	if err := validatePayload(data); err != nil {
		return nil, err
	}
	return s.request(ctx, http.MethodPost, "", data, opts)
}

// SendBatch sends every event as an independent call, at most
// batchConcurrency at a time, and marks each one as part of a batch. Results
// are in input order. On the first failure the remaining calls are cancelled
// and that failure is returned.
func (s *IngestService) SendBatch(ctx context.Context, items []IngestData, opts ...RequestOption) ([]json.RawMessage, error) {
	for i := range items {
		if err := validatePayload(items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	results := make([]json.RawMessage, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i := range items {
		item := items[i]
		item.Batch = true
		g.Go(func() error {
			res, err := s.request(gctx, http.MethodPost, "", item, opts)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

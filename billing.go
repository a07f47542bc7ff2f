package teer

import (
	"context"
	"net/http"
)

// BillingService groups the billing resources.
type BillingService struct {
	MeterEvents *MeterEventsService
}

// MeterEventCreateParams records usage against a billing provider meter.
// Stripe is the only supported provider.
type MeterEventCreateParams struct {
	Provider string                 `json:"provider" validate:"required,eq=stripe"`
	Fields   StripeMeterEventFields `json:"fields"`
}

// StripeMeterEventFields are the Stripe meter event fields.
type StripeMeterEventFields struct {
	Identifier string `json:"identifier,omitempty"`
	EventName  string `json:"event_name" validate:"required"`
	// Timestamp is an RFC 3339 time; the server's clock is used when empty.
	Timestamp string             `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Payload   StripeMeterPayload `json:"payload"`
}

type StripeMeterPayload struct {
	StripeCustomerID string `json:"stripe_customer_id" validate:"required"`
	Value            string `json:"value" validate:"required"`
}

// MeterEvent is the stored meter event returned by the API.
type MeterEvent struct {
	ID         string         `json:"id"`
	EventName  string         `json:"event_name"`
	Timestamp  string         `json:"timestamp"`
	Payload    map[string]any `json:"payload"`
	Identifier string         `json:"identifier,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// MeterEventsService creates meter events.
type MeterEventsService struct {
	resource
}

// Create records a meter event. A response without a JSON payload yields a
// nil event and no error.
func (s *MeterEventsService) Create(ctx context.Context, params MeterEventCreateParams, opts ...RequestOption) (*MeterEvent, error) {
	if err := validatePayload(params); err != nil {
		return nil, err
	}

	raw, err := s.request(ctx, http.MethodPost, "", params, opts)
	if err != nil || len(raw) == 0 {
		return nil, err
	}

	var event MeterEvent
	if err := decodeInto(raw, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

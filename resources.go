package teer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

var payloadValidator = validator.New(validator.WithRequiredStructEnabled())

// resource is the shared plumbing of the API resource services: a base path
// under the namespace and an optional resource-level base URL.
type resource struct {
	client   *Client
	basePath string
	baseURL  string
}

func (c *Client) newResource(basePath string) resource {
	return resource{client: c, basePath: basePath, baseURL: c.trackURL}
}

// path joins sub onto the resource base path.
func (r resource) path(sub string) string {
	sub = strings.Trim(sub, "/")
	switch {
	case sub == "":
		return r.basePath
	case r.basePath == "":
		return sub
	default:
		return r.basePath + "/" + sub
	}
}

// request executes one call against the resource. The resource base URL is a
// call-layer default, so an explicit per-call base URL still wins.
func (r resource) request(ctx context.Context, method, sub string, body any, opts []RequestOption) (json.RawMessage, error) {
	var base RequestConfig
	if r.baseURL != "" {
		base.BaseURL = String(r.baseURL)
	}
	return r.client.call(ctx, &Request{Method: method, Path: r.path(sub), Body: body}, base, opts)
}

// validatePayload checks v against its validate tags.
func validatePayload(v any) error {
	if err := payloadValidator.Struct(v); err != nil {
		return &PayloadError{Err: err}
	}
	return nil
}

// PayloadError reports a request payload rejected before sending.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return ErrInvalidPayload.Error() + ": " + e.Err.Error()
}

// Is matches ErrInvalidPayload.
func (e *PayloadError) Is(target error) bool { return target == ErrInvalidPayload }

// Unwrap returns the validator error.
func (e *PayloadError) Unwrap() error { return e.Err }

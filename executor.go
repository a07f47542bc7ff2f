package teer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teerai/teer-go/internal/backoff"
)

const redacted = "Bearer [REDACTED]"

// DelayFor returns the equal-jitter backoff before retry number attempt (1-based):
// base·2^(attempt-1) scaled by a uniform factor in [0.5, 1).
func DelayFor(attempt int, base time.Duration) time.Duration {
	return backoff.EqualJitter{}.Calculate(attempt, base)
}

// BuildURL joins the base URL, the API namespace and path with single slashes.
func BuildURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + Namespace + "/" + strings.TrimLeft(path, "/")
}

// Execute performs req under cfg, retrying transient failures with exponential
// backoff. It returns the decoded JSON payload of the first 2xx response, or nil
// when that response carried no JSON. Failures are reported as *APIError,
// *TimeoutError or *NetworkError. Cancelling ctx stops the sequence at once,
// including any pending backoff wait.
func (c *Client) Execute(ctx context.Context, req *Request, cfg EffectiveConfig) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if req.Method == "" {
		return nil, fmt.Errorf("%w: empty method", ErrInvalidRequest)
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %v", ErrInvalidRequest, err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = defaultTransport
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	url := BuildURL(cfg.BaseURL, req.Path)
	requestID := c.newRequestID()
	header := c.buildHeader(requestID)
	rc := RequestContext{
		Method:    req.Method,
		Path:      req.Path,
		BaseURL:   cfg.BaseURL,
		URL:       url,
		RequestID: requestID,
		Header:    redactHeader(header),
	}

	ctx, span := c.startSpan(ctx, req, url, requestID)
	start := time.Now()
	c.metrics.RecordRequestStart(req.Method, req.Path)

	c.logger.Debug("Starting request",
		"request_id", requestID,
		"method", req.Method,
		"url", url,
		"max_retries", cfg.MaxRetries,
		"timeout", cfg.Timeout,
	)

	run := &execution{
		client:    c,
		req:       req,
		cfg:       cfg,
		url:       url,
		header:    header,
		body:      body,
		transport: transport,
		rc:        rc,
		span:      span,
	}
	result, err := run.loop(ctx)

	duration := time.Since(start)
	c.metrics.RecordRequestEnd(req.Method, req.Path)
	c.metrics.RecordRequest(req.Method, req.Path, run.statusCode, duration)
	endSpan(span, run.statusCode, run.attempts, err)

	if err != nil {
		if kind, ok := KindOf(err); ok {
			c.metrics.RecordError(kind, req.Method, req.Path)
		}
		c.logger.Warn("Request failed",
			"request_id", requestID,
			"method", req.Method,
			"url", url,
			"attempts", run.attempts,
			"duration", duration,
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("Request succeeded",
		"request_id", requestID,
		"status_code", run.statusCode,
		"attempts", run.attempts,
		"duration", duration,
	)
	return result, nil
}

// execution holds the state of one logical call across its attempts.
type execution struct {
	client    *Client
	req       *Request
	cfg       EffectiveConfig
	url       string
	header    http.Header
	body      []byte
	transport Transport
	rc        RequestContext
	span      trace.Span

	attempts   int
	statusCode int
}

func (e *execution) loop(ctx context.Context) (json.RawMessage, error) {
	c := e.client
	var (
		last    Decision
		lastErr error
	)

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff.Calculate(attempt, e.cfg.RetryDelay)
			if last.HasOverride {
				delay = last.DelayOverride
			}

			c.logger.Info("Retrying request",
				"request_id", e.rc.RequestID,
				"attempt", attempt,
				"max_retries", e.cfg.MaxRetries,
				"reason", last.Reason,
				"delay", delay,
			)
			c.metrics.RecordRetry(e.req.Method, e.req.Path, last.Reason, delay)
			spanRetry(e.span, attempt, last.Reason, delay)

			if err := c.sleep(ctx, delay); err != nil {
				return nil, e.canceled(err)
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, e.canceled(err)
		}

		e.attempts++
		outcome := e.attempt(ctx)
		c.metrics.RecordAttempt(e.req.Method, e.req.Path, outcome.Kind)
		if outcome.StatusCode > 0 {
			e.statusCode = outcome.StatusCode
		}

		if outcome.Kind == OutcomeSuccess {
			return outcome.Body, nil
		}
		if outcome.Kind == OutcomeTransportFailure && errors.Is(outcome.Cause, ErrMalformedResponse) {
			return nil, fmt.Errorf("%w: %s %s (request %s)", ErrMalformedResponse, e.req.Method, e.url, e.rc.RequestID)
		}
		if err := ctx.Err(); err != nil {
			return nil, e.canceled(err)
		}

		decision := Classify(outcome)
		failure := e.failure(outcome)

		c.logger.Debug("Attempt failed",
			"request_id", e.rc.RequestID,
			"attempt", attempt,
			"outcome", outcome.Kind.String(),
			"retryable", decision.Retryable,
			"error", failure,
		)

		if !decision.Retryable || attempt == e.cfg.MaxRetries {
			return nil, failure
		}
		last, lastErr = decision, failure
	}

	return nil, lastErr
}

// attempt runs one transport exchange bounded by the per-attempt timeout. The
// transport runs on its own goroutine so a transport that ignores cancellation
// cannot hold the call past its deadline; its late result is discarded.
func (e *execution) attempt(ctx context.Context) AttemptOutcome {
	var (
		attemptCtx context.Context
		cancel     context.CancelFunc
	)
	if e.cfg.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
	} else {
		attemptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	treq := &TransportRequest{
		Method: e.req.Method,
		Header: e.header.Clone(),
		Body:   e.body,
	}

	done := make(chan roundTripResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- roundTripResult{err: fmt.Errorf("transport panic: %v", r)}
			}
		}()
		resp, err := e.transport.RoundTrip(attemptCtx, e.url, treq)
		done <- roundTripResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
				return AttemptOutcome{Kind: OutcomeTimeout}
			}
			return AttemptOutcome{Kind: OutcomeTransportFailure, Cause: res.err}
		}
		if res.resp == nil {
			return AttemptOutcome{Kind: OutcomeTransportFailure, Cause: errors.New("transport returned no response")}
		}
		return responseOutcome(res.resp)
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return AttemptOutcome{Kind: OutcomeTransportFailure, Cause: err}
		}
		return AttemptOutcome{Kind: OutcomeTimeout}
	}
}

// responseOutcome converts a completed exchange into an outcome. 2xx bodies
// are kept only when the response declares JSON.
func responseOutcome(resp *TransportResponse) AttemptOutcome {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		out := AttemptOutcome{Kind: OutcomeSuccess, StatusCode: resp.StatusCode, Header: resp.Header}
		if !resp.IsJSON() {
			return out
		}
		payload := bytes.TrimSpace(resp.Body)
		if len(payload) == 0 {
			return out
		}
		if !json.Valid(payload) {
			return AttemptOutcome{
				Kind:       OutcomeTransportFailure,
				StatusCode: resp.StatusCode,
				Cause:      ErrMalformedResponse,
			}
		}
		out.Body = json.RawMessage(bytes.Clone(payload))
		return out
	}

	statusText := resp.StatusText
	if statusText == "" {
		statusText = http.StatusText(resp.StatusCode)
	}
	return AttemptOutcome{
		Kind:       OutcomeAPIFailure,
		StatusCode: resp.StatusCode,
		StatusText: statusText,
		RawBody:    resp.Body,
		Header:     resp.Header,
	}
}

// failure builds the caller-facing error for a failed attempt.
func (e *execution) failure(o AttemptOutcome) error {
	switch o.Kind {
	case OutcomeTimeout:
		return &TimeoutError{Timeout: e.cfg.Timeout, Request: e.rc, Attempts: e.attempts}
	case OutcomeAPIFailure:
		body := decodeErrorBody(o.Header, o.RawBody)
		return &APIError{
			StatusCode: o.StatusCode,
			StatusText: o.StatusText,
			Message:    apiErrorMessage(body, o.RawBody),
			Body:       body,
			RawBody:    o.RawBody,
			Header:     o.Header,
			Request:    e.rc,
			Attempts:   e.attempts,
		}
	default:
		return &NetworkError{Cause: o.Cause, Request: e.rc, Attempts: e.attempts}
	}
}

func (e *execution) canceled(cause error) error {
	return &NetworkError{Cause: cause, Request: e.rc, Attempts: e.attempts}
}

// decodeErrorBody returns the parsed JSON payload when the response declares
// JSON and parses, and the raw text otherwise.
func decodeErrorBody(h http.Header, raw []byte) any {
	if strings.Contains(strings.ToLower(h.Get(HeaderContentType)), contentTypeJSON) {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.(json.RawMessage); ok {
		if len(raw) == 0 {
			return nil, nil
		}
		return raw, nil
	}
	return json.Marshal(body)
}

func (c *Client) buildHeader(requestID string) http.Header {
	h := make(http.Header, 4)
	h.Set(HeaderContentType, contentTypeJSON)
	h.Set(HeaderAuthorization, "Bearer "+c.apiKey)
	h.Set(HeaderUserAgent, UserAgent())
	h.Set(HeaderRequestID, requestID)
	return h
}

func redactHeader(h http.Header) http.Header {
	out := h.Clone()
	if out.Get(HeaderAuthorization) != "" {
		out.Set(HeaderAuthorization, redacted)
	}
	return out
}

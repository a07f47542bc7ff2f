package teer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/teerai/teer-go"

// Span and event attribute keys.
const (
	attrMethod     = "http.request.method"
	attrURL        = "url.full"
	attrStatusCode = "http.response.status_code"
	attrPath       = "teer.path"
	attrRequestID  = "teer.request_id"
	attrAttempts   = "teer.attempts"
	attrAttempt    = "teer.attempt"
	attrReason     = "teer.retry.reason"
	attrDelayMs    = "teer.retry.delay_ms"
	attrErrorKind  = "teer.error.kind"

	eventRetry = "teer.retry"
)

// startSpan opens a client span covering one logical call, retries included.
func (c *Client) startSpan(ctx context.Context, req *Request, url, requestID string) (context.Context, trace.Span) {
	tracer := c.tracerProvider.Tracer(tracerName, trace.WithInstrumentationVersion(Version))
	return tracer.Start(ctx, "teer "+req.Method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrMethod, req.Method),
			attribute.String(attrURL, url),
			attribute.String(attrPath, req.Path),
			attribute.String(attrRequestID, requestID),
		),
	)
}

func spanRetry(span trace.Span, attempt int, reason string, delay time.Duration) {
	span.AddEvent(eventRetry, trace.WithAttributes(
		attribute.Int(attrAttempt, attempt),
		attribute.String(attrReason, reason),
		attribute.Int64(attrDelayMs, delay.Milliseconds()),
	))
}

func endSpan(span trace.Span, statusCode, attempts int, err error) {
	defer span.End()

	span.SetAttributes(attribute.Int(attrAttempts, attempts))
	if statusCode > 0 {
		span.SetAttributes(attribute.Int(attrStatusCode, statusCode))
	}
	if err != nil {
		if kind, ok := KindOf(err); ok {
			span.SetAttributes(attribute.String(attrErrorKind, string(kind)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

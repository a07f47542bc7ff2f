package teer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Transport performs a single HTTP exchange. It has no knowledge of retries and
// must be safe for concurrent use. Implementations should abort when ctx is done.
type Transport interface {
	RoundTrip(ctx context.Context, url string, req *TransportRequest) (*TransportResponse, error)
}

// TransportFunc adapts an ordinary function to the Transport interface.
type TransportFunc func(ctx context.Context, url string, req *TransportRequest) (*TransportResponse, error)

// RoundTrip implements Transport.
func (f TransportFunc) RoundTrip(ctx context.Context, url string, req *TransportRequest) (*TransportResponse, error) {
	return f(ctx, url, req)
}

// TransportRequest is what the executor hands to a Transport for one attempt.
type TransportRequest struct {
	Method string
	Header http.Header
	// Body is nil when the request has no payload.
	Body []byte
}

// TransportResponse is the result of one completed HTTP exchange.
type TransportResponse struct {
	StatusCode int
	StatusText string
	// Header lookups through Header.Get are case-insensitive.
	Header http.Header
	Body   []byte
}

// JSON decodes the body into v.
func (r *TransportResponse) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Text returns the body as a string.
func (r *TransportResponse) Text() string {
	return string(r.Body)
}

// IsJSON reports whether the response declares a JSON content type.
func (r *TransportResponse) IsJSON() bool {
	if r == nil || r.Header == nil {
		return false
	}
	return strings.Contains(strings.ToLower(r.Header.Get(HeaderContentType)), contentTypeJSON)
}

// defaultTransport backs every call that does not configure a transport, so
// connections are pooled across clients.
var defaultTransport Transport = DefaultTransport()

// HTTPTransport is the production Transport backed by net/http.
type HTTPTransport struct {
	Client *http.Client
}

// DefaultTransport returns an HTTPTransport over a fresh http.Client. Timeouts
// are enforced per attempt by the executor, so the client carries none.
func DefaultTransport() *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{}}
}

// NewHTTPTransport wraps an existing http.Client.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{Client: client}
}

// RoundTrip implements Transport.
func (t *HTTPTransport) RoundTrip(ctx context.Context, url string, req *TransportRequest) (*TransportResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, err
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &TransportResponse{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// statusText strips the numeric code from resp.Status ("503 Service Unavailable").
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text := strings.TrimPrefix(resp.Status, prefix); text != resp.Status && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// roundTripResult carries a transport outcome across the attempt goroutine.
type roundTripResult struct {
	resp *TransportResponse
	err  error
}

// sleepWithContext waits for d or until ctx is done, whichever comes first.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

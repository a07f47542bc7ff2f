package teer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teerai/teer-go/internal/backoff"
)

const (
	testAPIKey     = "sk_test_123"
	testPath       = "ingest"
	testRetryDelay = 100 * time.Millisecond
)

// sleepRecorder replaces real backoff waits and records what was requested.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

// newTestClient builds a client whose backoff never sleeps and whose jitter
// factor is always 0.5.
func newTestClient(t *testing.T, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()

	client, err := New(testAPIKey, opts...)
	require.NoError(t, err)

	rec := &sleepRecorder{}
	client.sleep = rec.sleep
	client.backoff = backoff.EqualJitter{Rand: func() float64 { return 0 }, Max: client.maxBackoff}
	return client, rec
}

// scriptedResponse is one canned transport reply.
type scriptedResponse struct {
	status int
	header http.Header
	body   string
	err    error
}

// scriptedTransport replays responses in order, repeating the last one.
type scriptedTransport struct {
	responses []scriptedResponse
	calls     atomic.Int32

	mu       sync.Mutex
	requests []*TransportRequest
	urls     []string
}

func (s *scriptedTransport) RoundTrip(ctx context.Context, url string, req *TransportRequest) (*TransportResponse, error) {
	n := int(s.calls.Add(1)) - 1

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.urls = append(s.urls, url)
	s.mu.Unlock()

	if n >= len(s.responses) {
		n = len(s.responses) - 1
	}
	r := s.responses[n]
	if r.err != nil {
		return nil, r.err
	}
	header := r.header
	if header == nil {
		header = http.Header{}
	}
	return &TransportResponse{
		StatusCode: r.status,
		StatusText: http.StatusText(r.status),
		Header:     header,
		Body:       []byte(r.body),
	}, nil
}

func (s *scriptedTransport) Calls() int {
	return int(s.calls.Load())
}

func (s *scriptedTransport) Requests() []*TransportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*TransportRequest(nil), s.requests...)
}

func script(responses ...scriptedResponse) *scriptedTransport {
	return &scriptedTransport{responses: responses}
}

func jsonResponse(status int, body string) scriptedResponse {
	return scriptedResponse{
		status: status,
		header: http.Header{HeaderContentType: []string{"application/json; charset=utf-8"}},
		body:   body,
	}
}

// blockingTransport never returns until the test ends, ignoring cancellation.
func blockingTransport(t *testing.T) (Transport, *atomic.Int32) {
	t.Helper()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	calls := &atomic.Int32{}
	return TransportFunc(func(ctx context.Context, url string, req *TransportRequest) (*TransportResponse, error) {
		calls.Add(1)
		<-release
		return nil, context.Canceled
	}), calls
}

func newJSONServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func effective(transport Transport, maxRetries int) EffectiveConfig {
	return EffectiveConfig{
		BaseURL:    "https://api.test",
		Timeout:    time.Second,
		MaxRetries: maxRetries,
		RetryDelay: testRetryDelay,
		Transport:  transport,
	}
}

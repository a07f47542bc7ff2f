package teer

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportRoundTrip(t *testing.T) {
	var (
		gotMethod string
		gotHeader http.Header
		gotBody   []byte
	)
	server := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotHeader = r.Method, r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set(HeaderContentType, "application/json")
		w.Header().Set("X-Trace", "abc")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	header := http.Header{}
	header.Set(HeaderAuthorization, "Bearer k")
	resp, err := DefaultTransport().RoundTrip(context.Background(), server.URL, &TransportRequest{
		Method: http.MethodPut,
		Header: header,
		Body:   []byte(`{"a":1}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "Bearer k", gotHeader.Get(HeaderAuthorization))
	assert.Equal(t, `{"a":1}`, string(gotBody))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Created", resp.StatusText)
	assert.Equal(t, "abc", resp.Header.Get("x-trace"))
	assert.True(t, resp.IsJSON())
	assert.Equal(t, `{"ok":true}`, resp.Text())

	var decoded map[string]bool
	require.NoError(t, resp.JSON(&decoded))
	assert.True(t, decoded["ok"])
}

func TestHTTPTransportNoBody(t *testing.T) {
	var contentLength int64 = -2
	server := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		contentLength = r.ContentLength
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := NewHTTPTransport(nil).RoundTrip(context.Background(), server.URL, &TransportRequest{Method: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, int64(0), contentLength)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.False(t, resp.IsJSON())
}

func TestHTTPTransportHonoursContext(t *testing.T) {
	server := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := (&HTTPTransport{}).RoundTrip(ctx, server.URL, &TransportRequest{Method: http.MethodGet})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPTransportInvalidURL(t *testing.T) {
	_, err := DefaultTransport().RoundTrip(context.Background(), "://bad", &TransportRequest{Method: http.MethodGet})
	assert.Error(t, err)
}

func TestTransportFunc(t *testing.T) {
	called := false
	var tr Transport = TransportFunc(func(ctx context.Context, url string, req *TransportRequest) (*TransportResponse, error) {
		called = true
		assert.Equal(t, "https://x.test", url)
		return &TransportResponse{StatusCode: 200}, nil
	})

	resp, err := tr.RoundTrip(context.Background(), "https://x.test", &TransportRequest{Method: http.MethodGet})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestTransportResponseIsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"Application/JSON; charset=utf-8", true},
		{"application/problem+json", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		resp := &TransportResponse{Header: http.Header{}}
		if tt.contentType != "" {
			resp.Header.Set(HeaderContentType, tt.contentType)
		}
		assert.Equal(t, tt.want, resp.IsJSON(), tt.contentType)
	}

	var nilResp *TransportResponse
	assert.False(t, nilResp.IsJSON())
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "Service Unavailable", statusText(&http.Response{StatusCode: 503, Status: "503 Service Unavailable"}))
	assert.Equal(t, "Custom Reason", statusText(&http.Response{StatusCode: 499, Status: "499 Custom Reason"}))
	assert.Equal(t, "Not Found", statusText(&http.Response{StatusCode: 404, Status: ""}))
}

func TestSleepWithContext(t *testing.T) {
	assert.NoError(t, sleepWithContext(context.Background(), 0))
	assert.NoError(t, sleepWithContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepWithContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

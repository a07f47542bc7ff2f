// Package teer is the Go client for the Teer API. Every call goes through one
// request executor that provides:
//
//   - Layered configuration: library defaults, client options, per-call options
//   - Bearer authentication, a User-Agent and a per-call X-Request-ID
//   - A per-attempt timeout enforced even against transports that ignore cancellation
//   - Retries with exponential backoff and equal jitter for timeouts, network
//     failures, 5xx and 429 responses (honouring Retry-After)
//   - Typed errors: *APIError, *TimeoutError, *NetworkError
//   - A pluggable Transport (net/http by default)
//   - Prometheus metrics, OpenTelemetry spans and zerolog-backed logging
//
// Typical usage:
//
//	client, err := teer.New(apiKey,
//	    teer.WithTimeout(8*time.Second),
//	    teer.WithMaxRetries(2),
//	)
//	if err != nil {
//	    return err
//	}
//	_, err = client.Ingest.Send(ctx, teer.IngestData{
//	    Provider: teer.ProviderAnthropic,
//	    Model:    "claude-3-haiku-20240307",
//	    Usage:    teer.Usage{Input: 1000, Output: 2000},
//	}, teer.WithRequestTimeout(3*time.Second))
//
// Calls share no mutable state, so a single *Client may be used from many
// goroutines. Cancelling the call's context stops retries immediately.
package teer

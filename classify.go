package teer

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OutcomeKind tags the result of a single attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeAPIFailure
	OutcomeTimeout
	OutcomeTransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAPIFailure:
		return "api_failure"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// AttemptOutcome is produced once per attempt and consumed by Classify.
type AttemptOutcome struct {
	Kind OutcomeKind

	// Success: Body holds the JSON payload, nil when the response was not JSON.
	Body json.RawMessage

	// APIFailure.
	StatusCode int
	StatusText string
	RawBody    []byte
	Header     http.Header

	// TransportFailure.
	Cause error
}

// Decision is the classifier's verdict on an attempt.
type Decision struct {
	Retryable bool
	Reason    string
	// DelayOverride replaces the computed backoff for the next wait when
	// HasOverride is set.
	DelayOverride time.Duration
	HasOverride   bool
}

// Classify decides whether an outcome may be retried. Rules, in order:
// timeouts, 5xx and 429 (honouring Retry-After) are retryable, any other
// non-2xx status is terminal, and connectivity failures are retryable.
func Classify(o AttemptOutcome) Decision {
	switch o.Kind {
	case OutcomeSuccess:
		return Decision{Reason: "success"}
	case OutcomeTimeout:
		return Decision{Retryable: true, Reason: "timeout"}
	case OutcomeAPIFailure:
		return classifyStatus(o)
	case OutcomeTransportFailure:
		return Decision{Retryable: true, Reason: "transport_error"}
	default:
		return Decision{Reason: "unknown_outcome"}
	}
}

func classifyStatus(o AttemptOutcome) Decision {
	switch {
	case o.StatusCode >= 500 && o.StatusCode < 600:
		return Decision{Retryable: true, Reason: "http_5xx"}
	case o.StatusCode == http.StatusTooManyRequests:
		d := Decision{Retryable: true, Reason: "http_429"}
		if delay, ok := ParseRetryAfter(o.Header); ok {
			d.DelayOverride = delay
			d.HasOverride = true
		}
		return d
	default:
		return Decision{Reason: "http_" + strconv.Itoa(o.StatusCode)}
	}
}

// ParseRetryAfter reads the Retry-After header. Integer seconds are the primary
// form; an HTTP-date is converted to the remaining duration, floored at zero.
func ParseRetryAfter(h http.Header) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}
	value := strings.TrimSpace(h.Get(HeaderRetryAfter))
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}

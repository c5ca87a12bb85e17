package httpclient

import (
	"fmt"
	"net/http"
	"time"

	hberrors "heartbeat/internal/errors"
	"heartbeat/internal/logging"
)

// New builds an HTTP client with a per-request timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewWithCircuitBreaker builds an HTTP client guarded by a circuit breaker.
func NewWithCircuitBreaker(timeout time.Duration, logger *logging.Logger, name string) *http.Client {
	client := New(timeout)
	client.Transport = WrapTransportWithCircuitBreaker(client.Transport, name, hberrors.DefaultCircuitBreakerConfig(), logger)
	return client
}

// WrapTransportWithCircuitBreaker wraps a transport with circuit breaker protection.
func WrapTransportWithCircuitBreaker(base http.RoundTripper, name string, config hberrors.CircuitBreakerConfig, logger *logging.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if name == "" {
		name = "http-client"
	}
	return &circuitBreakerRoundTripper{
		base:    base,
		breaker: hberrors.NewCircuitBreaker(name, config, logger),
	}
}

type circuitBreakerRoundTripper struct {
	base    http.RoundTripper
	breaker *hberrors.CircuitBreaker
}

func (t *circuitBreakerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := t.breaker.Allow(); err != nil {
		return nil, err
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		// Cancellation and other non-transient transport errors say nothing
		// about the remote's health, so only transient ones count.
		if hberrors.IsTransient(err) {
			t.breaker.Mark(err)
		} else {
			t.breaker.Mark(nil)
		}
		return nil, err
	}
	statusErr := &httpStatusError{status: resp.StatusCode}
	if hberrors.IsTransient(statusErr) {
		t.breaker.Mark(statusErr)
	} else {
		t.breaker.Mark(nil)
	}
	return resp, nil
}

// httpStatusError lets a response status flow through the shared transient
// classification via errors.StatusCoder.
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string   { return fmt.Sprintf("http status %d", e.status) }
func (e *httpStatusError) StatusCode() int { return e.status }

package httpclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	hberrors "heartbeat/internal/errors"
)

func TestBreakerTransportTripsOnServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(5 * time.Second)
	client.Transport = WrapTransportWithCircuitBreaker(nil, "test", hberrors.CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	}, nil)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}

	// Circuit is now open: the request fails without reaching the server.
	_, err := client.Get(server.URL)
	if err == nil {
		t.Fatal("expected open-circuit error")
	}
	var openErr *hberrors.OpenCircuitError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected OpenCircuitError, got %v", err)
	}
}

func TestBreakerTransportTripsOnRequestTimeoutStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestTimeout)
	}))
	defer server.Close()

	client := New(5 * time.Second)
	client.Transport = WrapTransportWithCircuitBreaker(nil, "test", hberrors.CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	}, nil)

	// 408 is transient, so repeated ones open the circuit just like 5xx.
	for i := 0; i < 2; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}

	_, err := client.Get(server.URL)
	var openErr *hberrors.OpenCircuitError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected OpenCircuitError, got %v", err)
	}
}

func TestBreakerTransportIgnoresClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(5 * time.Second)
	client.Transport = WrapTransportWithCircuitBreaker(nil, "test", hberrors.CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	}, nil)

	for i := 0; i < 5; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	}
}

func TestBreakerTransportPassesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewWithCircuitBreaker(5*time.Second, nil, "test")
	for i := 0; i < 10; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	}
}

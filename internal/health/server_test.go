package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"heartbeat/internal/runner"
)

func serveOnce(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestHealthzAlwaysOK(t *testing.T) {
	server := NewServer(Config{
		Port:   0,
		Status: func() runner.StatusSnapshot { return runner.StatusSnapshot{} },
	})

	resp := serveOnce(t, server, "/healthz")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestReadyzReflectsLoopState(t *testing.T) {
	state := runner.StatusSnapshot{Ready: false, LastError: "control plane unreachable"}
	server := NewServer(Config{
		Port:   0,
		Status: func() runner.StatusSnapshot { return state },
	})

	resp := serveOnce(t, server, "/readyz")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when not ready", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != false || body["lastError"] != "control plane unreachable" {
		t.Fatalf("body = %v", body)
	}

	state = runner.StatusSnapshot{Ready: true}
	resp = serveOnce(t, server, "/readyz")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when ready", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true || body["lastError"] != nil {
		t.Fatalf("body = %v", body)
	}
}

func TestMetricsRouteOptional(t *testing.T) {
	server := NewServer(Config{
		Port:   0,
		Status: func() runner.StatusSnapshot { return runner.StatusSnapshot{Ready: true} },
	})
	if resp := serveOnce(t, server, "/metrics"); resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 without a metrics handler", resp.Code)
	}

	served := false
	withMetrics := NewServer(Config{
		Port:   0,
		Status: func() runner.StatusSnapshot { return runner.StatusSnapshot{Ready: true} },
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			served = true
			w.WriteHeader(http.StatusOK)
		}),
	})
	if resp := serveOnce(t, withMetrics, "/metrics"); resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if !served {
		t.Fatal("metrics handler not invoked")
	}
}

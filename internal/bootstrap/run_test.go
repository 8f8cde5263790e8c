package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/target/oidc-gate/config"
	"github.com/target/oidc-gate/internal/observability/statsd"
)

func TestServeStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeConfig{Server: srv, ShutdownTimeout: time.Second, Logger: testLogger()})
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestServeReportsListenErrors(t *testing.T) {
	srv := NewHTTPServer("256.0.0.1:bad", http.NotFoundHandler())

	if err := Serve(context.Background(), ServeConfig{Server: srv, Logger: testLogger()}); err == nil {
		t.Fatal("Serve() error = nil, want listen error")
	}
}

func TestShutdownHTTPServerNil(t *testing.T) {
	if err := ShutdownHTTPServer(ShutdownConfig{}); err != nil {
		t.Fatalf("ShutdownHTTPServer() error = %v", err)
	}
}

func TestNewHTTPServerDefaultsAddr(t *testing.T) {
	if got := NewHTTPServer("", http.NotFoundHandler()).Addr; got != ":8080" {
		t.Fatalf("Addr = %q, want :8080", got)
	}
}

func TestBuildMetricsDisabled(t *testing.T) {
	m := BuildMetrics(context.Background(), config.ObservabilityMetricsConfig{}, testLogger())
	defer m.Close()

	if _, ok := m.Sink.(statsd.Discard); !ok {
		t.Fatalf("BuildMetrics().Sink = %T, want statsd.Discard", m.Sink)
	}
	if m.Handler != nil {
		t.Fatal("BuildMetrics().Handler should be nil without prometheus")
	}
}

func TestBuildMetricsPrometheus(t *testing.T) {
	m := BuildMetrics(context.Background(), config.ObservabilityMetricsConfig{
		Prometheus: true,
		Prefix:     "oidcgate",
	}, testLogger())
	defer m.Close()

	if m.Handler == nil {
		t.Fatal("BuildMetrics().Handler = nil, want prometheus handler")
	}
	m.Sink.Count("auth.gate", 1, map[string]string{"gate": "token", "event": "login", "result": "noop"})

	rec := httptest.NewRecorder()
	m.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "oidcgate_auth_gate_events_total") {
		t.Fatalf("scrape output missing gate counter:\n%s", rec.Body.String())
	}
}

func TestBuildMetricsUnreachableStatsdFallsBack(t *testing.T) {
	m := BuildMetrics(context.Background(), config.ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: "bad address",
	}, testLogger())
	defer m.Close()

	if _, ok := m.Sink.(statsd.Discard); !ok {
		t.Fatalf("BuildMetrics().Sink = %T, want statsd.Discard", m.Sink)
	}
}

// Package prom exposes gateway metrics in the Prometheus text format.
package prom

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/target/oidc-gate/internal/observability/statsd"
)

var _ statsd.Sink = (*Sink)(nil)

// Sink maps the gateway's StatsD-style metrics onto registered Prometheus
// collectors. Metrics without a registered collector are dropped.
type Sink struct {
	registry *prometheus.Registry

	gateEvents    *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	providerTimes *prometheus.HistogramVec
}

var (
	gateLabels     = []string{"gate", "event", "result", "error_class"}
	providerLabels = []string{"op", "result", "error_class"}
)

// NewSink builds a sink with its own registry. namespace prefixes every
// metric name, e.g. "oidcgate".
func NewSink(namespace string) *Sink {
	namespace = strings.Trim(strings.ReplaceAll(strings.TrimSpace(namespace), ".", "_"), "_")

	s := &Sink{
		registry: prometheus.NewRegistry(),
		gateEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_gate_events_total",
				Help:      "Decisions taken by the authentication gates.",
			},
			gateLabels,
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_provider_calls_total",
				Help:      "Calls made to the identity provider.",
			},
			providerLabels,
		),
		providerTimes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "auth_provider_duration_seconds",
				Help:      "Identity provider round trip latency.",
				Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			providerLabels,
		),
	}
	s.registry.MustRegister(
		s.gateEvents,
		s.providerCalls,
		s.providerTimes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// Registry returns the registry the sink's collectors live in.
func (s *Sink) Registry() *prometheus.Registry { return s.registry }

// Handler serves the registry for scraping.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Count increments the counter registered for name.
func (s *Sink) Count(name string, value int64, tags map[string]string) {
	switch name {
	case "auth.gate":
		s.gateEvents.With(labels(gateLabels, tags)).Add(float64(value))
	case "auth.provider.call":
		s.providerCalls.With(labels(providerLabels, tags)).Add(float64(value))
	}
}

// Gauge is accepted for interface compatibility; no gauges are registered.
func (s *Sink) Gauge(string, float64, map[string]string) {}

// Timing observes the histogram registered for name.
func (s *Sink) Timing(name string, value time.Duration, tags map[string]string) {
	if name == "auth.provider.duration" {
		s.providerTimes.With(labels(providerLabels, tags)).Observe(value.Seconds())
	}
}

// labels projects tags onto a fixed label set; absent tags become "".
func labels(names []string, tags map[string]string) prometheus.Labels {
	out := make(prometheus.Labels, len(names))
	for _, n := range names {
		out[n] = tags[n]
	}
	return out
}

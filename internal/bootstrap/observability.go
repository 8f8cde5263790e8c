package bootstrap

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/oidc-gate/config"
	"github.com/target/oidc-gate/internal/observability/prom"
	"github.com/target/oidc-gate/internal/observability/statsd"
)

// Metrics bundles the configured metric sinks.
type Metrics struct {
	Sink    statsd.Sink
	Handler http.Handler // Prometheus scrape endpoint; nil when disabled
	Close   func()
}

// BuildMetrics assembles the StatsD and Prometheus sinks. Unreachable StatsD
// is logged and skipped; with neither sink enabled metrics are discarded.
func BuildMetrics(ctx context.Context, cfg config.ObservabilityMetricsConfig, logger *slog.Logger) Metrics {
	if logger == nil {
		logger = slog.Default()
	}
	out := Metrics{Close: func() {}}
	var sinks []statsd.Sink

	if cfg.IsEnabled() {
		client, err := statsd.NewClient(ctx, statsd.Config{
			Enabled: true,
			Address: cfg.StatsdAddress,
			Prefix:  cfg.Prefix,
			Logger:  logger,
		})
		if err != nil {
			logger.Warn("statsd client unavailable; statsd metrics disabled", "address", cfg.StatsdAddress, "error", err)
		} else {
			logger.Info("statsd metrics enabled", "address", cfg.StatsdAddress, "prefix", cfg.Prefix)
			sinks = append(sinks, client)
			out.Close = func() {
				if closeErr := client.Close(); closeErr != nil {
					logger.Warn("close statsd client", "error", closeErr)
				}
			}
		}
	}

	if cfg.Prometheus {
		sink := prom.NewSink(cfg.Prefix)
		sinks = append(sinks, sink)
		out.Handler = sink.Handler()
		logger.Info("prometheus metrics enabled", "path", "/metrics")
	}

	out.Sink = statsd.Multi(sinks...)
	return out
}

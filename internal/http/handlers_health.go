package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

type healthStatus struct {
	Status string `json:"status"`
}

// healthHandler answers liveness probes. With a pinger it also reports session
// store reachability, returning 503 while the store is down.
func healthHandler(ping Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, healthStatus{Status: "ok"}
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "error", err)
				status, body = http.StatusServiceUnavailable, healthStatus{Status: "unavailable"}
			}
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			return
		}
		WriteJSON(w, status, body)
	}
}

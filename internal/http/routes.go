package httpx

import (
	"log/slog"
	"net/http"
)

// RouterOptions holds the components composed by NewRouter.
type RouterOptions struct {
	Sessions    *SessionManager
	TokenGate   *TokenGate
	BearerGate  *BearerGate
	SecureGuard *SecureURIGuard // optional
	Upstream    http.Handler    // defaults to a 404 responder
	Health      Pinger          // optional session store probe
	Metrics     http.Handler    // optional, served on GET /metrics
	Logger      *slog.Logger
}

// NewRouter builds the gateway handler:
// Recover, Sessions, Logging, TokenGate, BearerGate, SecureURIGuard, then upstream.
// Health probes and the metrics endpoint bypass the session and gates.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	upstream := opts.Upstream
	if upstream == nil {
		upstream = NewUpstreamProxy(UpstreamOptions{Logger: logger})
	}

	chain := upstream
	if opts.SecureGuard != nil {
		chain = opts.SecureGuard.Middleware(chain)
	}
	if opts.BearerGate != nil {
		chain = opts.BearerGate.Middleware(chain)
	}
	if opts.TokenGate != nil {
		chain = opts.TokenGate.Middleware(chain)
	}
	chain = Logging(logger)(chain)
	if opts.Sessions != nil {
		chain = opts.Sessions.Middleware(chain)
	}

	mux := http.NewServeMux()
	health := healthHandler(opts.Health, logger)
	mux.Handle("GET "+PathHealth, health)
	mux.Handle("HEAD "+PathHealth, health)
	if opts.Metrics != nil {
		mux.Handle("GET "+PathMetrics, opts.Metrics)
	}
	mux.Handle("/", chain)

	return Recover(logger)(mux)
}

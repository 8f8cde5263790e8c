package httpx

import (
	"log/slog"
	"net/http"
	"net/url"

	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/observability/metrics"
	"github.com/target/oidc-gate/internal/observability/statsd"
)

// SecureURIGuardOptions groups dependencies for SecureURIGuard.
type SecureURIGuardOptions struct {
	Enabled   bool         // false makes the guard a pass-through
	Secure    *PathMatcher // paths that require a named identity
	APIPaths  *PathMatcher // guests on these get a 401 instead of a redirect
	BasePath  string
	PublicURL string
	Logger    *slog.Logger
	Metrics   statsd.Sink
}

// SecureURIGuard sends guests requesting a protected path through the login endpoint.
type SecureURIGuard struct {
	enabled  bool
	secure   *PathMatcher
	apiPaths *PathMatcher
	urls     urlBuilder
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewSecureURIGuard constructs a SecureURIGuard.
func NewSecureURIGuard(opts SecureURIGuardOptions) (*SecureURIGuard, error) {
	urls, err := newURLBuilder(opts.BasePath, opts.PublicURL)
	if err != nil {
		return nil, err
	}
	g := &SecureURIGuard{
		enabled:  opts.Enabled,
		secure:   opts.Secure,
		apiPaths: opts.APIPaths,
		urls:     urls,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g, nil
}

// Middleware runs the guard in front of next.
func (g *SecureURIGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled || g.secure.Empty() || !IsGuestUser(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		rel, underBase := g.urls.relPath(r)
		if !underBase || !g.secure.Match(rel) {
			next.ServeHTTP(w, r)
			return
		}

		metrics.EmitGateEvent(g.metrics, metrics.GateMetric{
			Gate:   metrics.GateSecure,
			Event:  "challenge",
			Result: metrics.ResultNoop,
		})

		if g.apiPaths.Match(rel) {
			WriteAppError(w, r, g.logger, apperrors.Authorization("Authentication required"))
			return
		}

		target := g.urls.requestURL(r)
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		login := g.urls.appPath(PathLogin) + "?" + url.Values{"redirectTo": {target}}.Encode()
		http.Redirect(w, r, login, http.StatusFound)
	})
}

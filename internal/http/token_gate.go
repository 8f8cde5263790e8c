package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	"github.com/target/oidc-gate/internal/observability/metrics"
	"github.com/target/oidc-gate/internal/observability/statsd"
	"github.com/target/oidc-gate/internal/ports"
)

// TokenGateOptions groups dependencies for TokenGate.
type TokenGateOptions struct {
	Enabled    bool
	Tokens     ports.TokenService
	Identities ports.IdentityResolver
	Roles      ports.RoleExtractor

	BasePath       string // application context path, "" for root
	PublicURL      string // optional scheme://host override for built URLs
	DefaultLanding string // relative path, defaults to DefaultLandingPath
	Descriptor     ClientDescriptor

	Logger  *slog.Logger
	Metrics statsd.Sink
}

// TokenGate keeps the browser session's identity in sync with the identity
// provider and serves the login, logout and client-descriptor endpoints.
type TokenGate struct {
	enabled        bool
	tokens         ports.TokenService
	identities     ports.IdentityResolver
	roles          ports.RoleExtractor
	urls           urlBuilder
	defaultLanding string
	descriptor     http.Handler
	logger         *slog.Logger
	metrics        statsd.Sink
}

// NewTokenGate constructs a TokenGate. Providers are only required when the gate is enabled.
func NewTokenGate(opts TokenGateOptions) (*TokenGate, error) {
	urls, err := newURLBuilder(opts.BasePath, opts.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("parse public url: %w", err)
	}
	if opts.Enabled && (opts.Tokens == nil || opts.Identities == nil || opts.Roles == nil) {
		return nil, errors.New("token gate requires a token service, identity resolver and role extractor")
	}
	descriptor, err := newDescriptorHandler(opts.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("encode client descriptor: %w", err)
	}

	g := &TokenGate{
		enabled:        opts.Enabled,
		tokens:         opts.Tokens,
		identities:     opts.Identities,
		roles:          opts.Roles,
		urls:           urls,
		defaultLanding: opts.DefaultLanding,
		descriptor:     descriptor,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
	if g.defaultLanding == "" {
		g.defaultLanding = DefaultLandingPath
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With("component", "token_gate")
	return g, nil
}

// Middleware runs the gate in front of next.
func (g *TokenGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled {
			next.ServeHTTP(w, r)
			return
		}

		sess := SessionFrom(r)
		g.checkStoredToken(r.Context(), sess)

		rel, underBase := g.urls.relPath(r)
		if !underBase {
			g.forward(next, w, r, sess)
			return
		}

		switch rel {
		case PathLogin, PathLoginAction:
			if err := g.login(w, r, sess, next); err != nil {
				g.emit("login", metrics.ResultError, err)
				WriteAppError(w, r, g.logger, err)
			}
		case PathLogout, PathLogoutAction:
			g.logout(w, r, sess, rel)
		case PathDescriptor:
			g.descriptor.ServeHTTP(w, r)
		default:
			g.forward(next, w, r, sess)
		}
	})
}

func (g *TokenGate) forward(next http.Handler, w http.ResponseWriter, r *http.Request, sess *SessionHandle) {
	next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), sess.Data().User())))
}

// checkStoredToken validates the session's access token, refreshing it when
// it is no longer active. A token that cannot be renewed demotes the session to guest.
func (g *TokenGate) checkStoredToken(ctx context.Context, sess *SessionHandle) {
	data := sess.Data()
	if data.AccessToken == "" {
		return
	}

	v, err := g.tokens.ValidateToken(ctx, data.AccessToken)
	if err == nil && v.Active() {
		g.emit("validate", metrics.ResultSuccess, nil)
		return
	}
	if err != nil {
		g.logger.WarnContext(ctx, "stored token validation failed", "error", err)
	}

	if g.refresh(ctx, sess, data.RefreshToken) {
		return
	}

	sess.Update(func(s *domainauth.Session) {
		s.ClearTokens()
		s.SetUser(g.identities.GuestUser())
	})
	g.emit("validate", metrics.ResultDegraded, err)
}

func (g *TokenGate) refresh(ctx context.Context, sess *SessionHandle, refreshToken string) bool {
	if refreshToken == "" {
		return false
	}

	res, err := g.tokens.RefreshToken(ctx, refreshToken)
	if err != nil {
		if isGrantError(err, "invalid_grant") {
			g.logger.DebugContext(ctx, "refresh token rejected", "error", err)
		} else {
			status, body, _ := providerFailure(err)
			g.logger.ErrorContext(ctx, "token refresh failed", "status", status, "body", body, "error", err)
		}
		g.emit("refresh", metrics.ResultError, err)
		return false
	}
	if res.AccessToken == "" {
		g.emit("refresh", metrics.ResultError, nil)
		return false
	}

	sess.Update(func(s *domainauth.Session) {
		s.AccessToken = res.AccessToken
		if res.RefreshToken != "" {
			s.RefreshToken = res.RefreshToken
		}
	})
	g.emit("refresh", metrics.ResultSuccess, nil)
	return true
}

// logout drops the session and sends the browser to the provider's end-session
// endpoint, which returns it to the application root.
func (g *TokenGate) logout(w http.ResponseWriter, r *http.Request, sess *SessionHandle, rel string) {
	postLogout := strings.TrimSuffix(g.urls.requestURL(r), rel)
	user := sess.Data().User()
	sess.Invalidate()

	g.logger.InfoContext(r.Context(), "user logged out", "user", user.Username)
	g.emit("logout", metrics.ResultSuccess, nil)
	http.Redirect(w, r, g.tokens.LogoutURL(postLogout), http.StatusFound)
}

func (g *TokenGate) emit(event, result string, err error) {
	metrics.EmitGateEvent(g.metrics, metrics.GateMetric{
		Gate:   metrics.GateToken,
		Event:  event,
		Result: result,
		Err:    err,
	})
}

// providerFailure extracts the provider's HTTP answer from err.
func providerFailure(err error) (int, string, bool) {
	var pf ports.ProviderFailure
	if errors.As(err, &pf) {
		return pf.HTTPStatus(), pf.ResponseBody(), true
	}
	return 0, "", false
}

// isGrantError reports whether err is a 400 from the provider naming oauthCode.
func isGrantError(err error, oauthCode string) bool {
	status, body, ok := providerFailure(err)
	return ok && status == http.StatusBadRequest && strings.Contains(body, oauthCode)
}

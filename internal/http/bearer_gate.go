package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/observability/metrics"
	"github.com/target/oidc-gate/internal/observability/statsd"
	"github.com/target/oidc-gate/internal/ports"
)

// DefaultAPIPattern matches the REST surface guarded by BearerGate.
const DefaultAPIPattern = "/api/**"

const bearerPrefix = "Bearer "

// BearerGateOptions groups dependencies for BearerGate.
type BearerGateOptions struct {
	Enabled    bool
	Tokens     ports.TokenService
	Identities ports.IdentityResolver
	Roles      ports.RoleExtractor
	APIPaths   *PathMatcher // defaults to DefaultAPIPattern
	BasePath   string
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// BearerGate authenticates API calls from their Authorization header.
type BearerGate struct {
	enabled    bool
	tokens     ports.TokenService
	identities ports.IdentityResolver
	roles      ports.RoleExtractor
	apiPaths   *PathMatcher
	urls       urlBuilder
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewBearerGate constructs a BearerGate.
func NewBearerGate(opts BearerGateOptions) (*BearerGate, error) {
	if opts.Enabled && (opts.Tokens == nil || opts.Identities == nil || opts.Roles == nil) {
		return nil, errors.New("bearer gate requires a token service, identity resolver and role extractor")
	}
	g := &BearerGate{
		enabled:    opts.Enabled,
		tokens:     opts.Tokens,
		identities: opts.Identities,
		roles:      opts.Roles,
		apiPaths:   opts.APIPaths,
		urls:       urlBuilder{basePath: cleanBasePath(opts.BasePath)},
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if g.apiPaths == nil {
		g.apiPaths = NewPathMatcher([]string{DefaultAPIPattern})
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With("component", "bearer_gate")
	return g, nil
}

// Middleware runs the gate in front of next. Non-API paths pass through untouched.
func (g *BearerGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled {
			next.ServeHTTP(w, r)
			return
		}
		rel, underBase := g.urls.relPath(r)
		if !underBase || !g.apiPaths.Match(rel) {
			next.ServeHTTP(w, r)
			return
		}

		id, err := g.authenticate(r)
		if err != nil {
			g.emit(metrics.ResultError, err)
			WriteAppError(w, r, g.logger, err)
			return
		}

		// Only touch the session when the principal changes, so anonymous API
		// traffic does not mint a stored session per call.
		sess := SessionFrom(r)
		if cur := sess.Data().User(); cur.Username != id.Username || cur.IsGuest() != id.IsGuest() {
			sess.Update(func(s *domainauth.Session) { s.SetUser(id) })
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (g *BearerGate) authenticate(r *http.Request) (domainauth.Identity, error) {
	ctx := r.Context()

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		g.emit(metrics.ResultNoop, nil)
		return g.identities.GuestUser(), nil
	}
	token := strings.TrimPrefix(header, bearerPrefix)

	v, err := g.tokens.ValidateToken(ctx, token)
	if err != nil {
		g.logger.ErrorContext(ctx, "token introspection failed", "error", err)
		return domainauth.Identity{}, apperrors.BadCredentials("Invalid OAuth configuration", err)
	}
	if v.StatusCode == http.StatusNotFound || v.StatusCode == http.StatusUnauthorized {
		g.logger.ErrorContext(ctx, "invalid OAuth configuration", "status", v.StatusCode)
		return domainauth.Identity{}, apperrors.BadCredentials("Invalid OAuth configuration", nil)
	}
	if !v.Active() {
		return domainauth.Identity{}, apperrors.ExpiredCredentials("Invalid or expired token")
	}

	user, err := g.identities.GetUser(ctx, v.Token.Username)
	if err != nil {
		g.logger.ErrorContext(ctx, "user lookup failed", "user", v.Token.Username, "error", err)
		return domainauth.Identity{}, apperrors.InsufficientAuthentication("error parsing OAuth parameters", err)
	}

	roles, err := g.roles.Roles(*v.Token)
	if err != nil {
		g.logger.WarnContext(ctx, "role extraction failed", "user", user.Username, "error", err)
	}
	user = user.WithGrant(domainauth.Grant{Name: domainauth.ProviderGrantName, Permissions: roles})

	if err := g.identities.Provision(ctx, user, roles); err != nil {
		g.logger.ErrorContext(ctx, "user provisioning failed", "user", user.Username, "error", err)
	}

	g.emit(metrics.ResultSuccess, nil)
	return user, nil
}

func (g *BearerGate) emit(result string, err error) {
	metrics.EmitGateEvent(g.metrics, metrics.GateMetric{
		Gate:   metrics.GateBearer,
		Event:  "authenticate",
		Result: result,
		Err:    err,
	})
}

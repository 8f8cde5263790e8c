package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/target/oidc-gate/internal/adapters/authroles"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	authmocks "github.com/target/oidc-gate/internal/mocks/auth"
)

const (
	testBasePath = "/entando-de-app"
	testClientID = "entando-web"
	testHost     = "cms.example.com"
)

// gateHarness wires the full gateway around fakes and records what reached upstream.
type gateHarness struct {
	tokens     *authmocks.FakeTokenService
	identities *authmocks.FakeIdentityResolver
	store      *authmocks.MemorySessionStore
	handler    http.Handler

	mu       sync.Mutex
	upstream []domainauth.Identity
}

type harnessConfig struct {
	disabled   bool
	secureURIs []string
}

type harnessOption func(*harnessConfig)

func withGatesDisabled() harnessOption {
	return func(c *harnessConfig) { c.disabled = true }
}

func withSecureURIs(patterns ...string) harnessOption {
	return func(c *harnessConfig) { c.secureURIs = patterns }
}

func newGateHarness(t *testing.T, opts ...harnessOption) *gateHarness {
	t.Helper()
	cfg := harnessConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	h := &gateHarness{
		tokens:     &authmocks.FakeTokenService{},
		identities: authmocks.NewFakeIdentityResolver("admin", "editor"),
		store:      authmocks.NewMemorySessionStore(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	roles, err := authroles.NewClaimsRoleExtractor("", testClientID)
	require.NoError(t, err)

	tokenGate, err := NewTokenGate(TokenGateOptions{
		Enabled:    !cfg.disabled,
		Tokens:     h.tokens,
		Identities: h.identities,
		Roles:      roles,
		BasePath:   testBasePath,
		Descriptor: NewClientDescriptor("entando", "https://idp.example.com/auth", "entando-web-public"),
		Logger:     logger,
	})
	require.NoError(t, err)

	apiPaths := NewPathMatcher([]string{DefaultAPIPattern})
	bearerGate, err := NewBearerGate(BearerGateOptions{
		Enabled:    !cfg.disabled,
		Tokens:     h.tokens,
		Identities: h.identities,
		Roles:      roles,
		APIPaths:   apiPaths,
		BasePath:   testBasePath,
		Logger:     logger,
	})
	require.NoError(t, err)

	guard, err := NewSecureURIGuard(SecureURIGuardOptions{
		Enabled:  !cfg.disabled,
		Secure:   NewPathMatcher(cfg.secureURIs),
		APIPaths: apiPaths,
		BasePath: testBasePath,
		Logger:   logger,
	})
	require.NoError(t, err)

	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.upstream = append(h.upstream, CurrentIdentity(r.Context()))
		h.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "upstream")
	})

	h.handler = NewRouter(RouterOptions{
		Sessions:    NewSessionManager(SessionManagerOptions{Store: h.store, Logger: logger}),
		TokenGate:   tokenGate,
		BearerGate:  bearerGate,
		SecureGuard: guard,
		Upstream:    upstream,
		Logger:      logger,
	})
	return h
}

// seed stores sess and returns the cookie that selects it.
func (h *gateHarness) seed(t *testing.T, sess domainauth.Session) *http.Cookie {
	t.Helper()
	require.NoError(t, h.store.Save(context.Background(), sess))
	return &http.Cookie{Name: DefaultSessionCookie, Value: sess.ID}
}

func (h *gateHarness) session(t *testing.T, id string) domainauth.Session {
	t.Helper()
	sess, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return sess
}

type requestOption func(*http.Request)

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) {
		if c != nil {
			r.AddCookie(c)
		}
	}
}

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func (h *gateHarness) get(target string, opts ...requestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "http://"+testHost+target, nil)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *gateHarness) upstreamCalls() []domainauth.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domainauth.Identity(nil), h.upstream...)
}

// sessionCookie returns the session cookie set on rec, if any.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultSessionCookie {
			return c
		}
	}
	return nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Errors, 1)
	return env
}

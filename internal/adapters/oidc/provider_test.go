package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/oidc-gate/internal/ports"
)

const testRealm = "entando"

// fakeRealm serves discovery, token and introspection endpoints for one realm.
type fakeRealm struct {
	server *httptest.Server

	tokenStatus int
	tokenBody   map[string]any
	lastForm    url.Values

	introspectStatus int
	introspectBody   map[string]any
	introspectCalls  atomic.Int32
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()
	f := &fakeRealm{
		tokenStatus:      http.StatusOK,
		tokenBody:        map[string]any{"access_token": "at-1", "refresh_token": "rt-1", "token_type": "bearer", "expires_in": 300},
		introspectStatus: http.StatusOK,
		introspectBody:   map[string]any{"active": true, "username": "alice"},
	}
	mux := http.NewServeMux()
	base := "/auth/realms/" + testRealm
	mux.HandleFunc(base+"/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		issuer := f.server.URL + base
		writeTestJSON(w, http.StatusOK, map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + "/protocol/openid-connect/auth",
			"token_endpoint":         issuer + "/protocol/openid-connect/token",
			"jwks_uri":               issuer + "/protocol/openid-connect/certs",
			"introspection_endpoint": issuer + "/protocol/openid-connect/token/introspect",
			"end_session_endpoint":   issuer + "/protocol/openid-connect/logout",
		})
	})
	mux.HandleFunc(base+"/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.lastForm = r.PostForm
		writeTestJSON(w, f.tokenStatus, f.tokenBody)
	})
	mux.HandleFunc(base+"/protocol/openid-connect/token/introspect", func(w http.ResponseWriter, r *http.Request) {
		f.introspectCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cms" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeTestJSON(w, f.introspectStatus, f.introspectBody)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestProvider(t *testing.T, f *fakeRealm) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		AuthServerURL: f.server.URL + "/auth/",
		Realm:         testRealm,
		ClientID:      "cms",
		ClientSecret:  "s3cret",
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_Success(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)

	assert.Equal(t, f.server.URL+"/auth/realms/"+testRealm, p.Issuer())
	assert.Equal(t, p.Issuer()+"/protocol/openid-connect/token", p.config.Endpoint.TokenURL)
	assert.Equal(t, p.Issuer()+"/protocol/openid-connect/token/introspect", p.introspectionURL)
	assert.Equal(t, []string{"openid"}, p.config.Scopes)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{"missing auth server", ProviderConfig{Realm: "r", ClientID: "c", ClientSecret: "s"}, "auth server URL is required"},
		{"missing realm", ProviderConfig{AuthServerURL: "http://x", ClientID: "c", ClientSecret: "s"}, "realm is required"},
		{"missing client ID", ProviderConfig{AuthServerURL: "http://x", Realm: "r", ClientSecret: "s"}, "client ID is required"},
		{"missing client secret", ProviderConfig{AuthServerURL: "http://x", Realm: "r", ClientID: "c"}, "client secret is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_RedirectURL(t *testing.T) {
	p := newTestProvider(t, newFakeRealm(t))

	raw := p.RedirectURL("https://cms.example.com/app/do/login", "state-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "cms", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://cms.example.com/app/do/login", q.Get("redirect_uri"))
}

func TestProvider_LogoutURL(t *testing.T) {
	p := newTestProvider(t, newFakeRealm(t))

	u, err := url.Parse(p.LogoutURL("https://cms.example.com/app"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/realms/"+testRealm+"/protocol/openid-connect/logout", u.Path)
	assert.Equal(t, "https://cms.example.com/app", u.Query().Get("post_logout_redirect_uri"))
	assert.Equal(t, "cms", u.Query().Get("client_id"))
}

func TestProvider_RequestToken(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)

	res, err := p.RequestToken(context.Background(), "code-1", "https://cms.example.com/do/login")
	require.NoError(t, err)
	assert.Equal(t, "at-1", res.AccessToken)
	assert.Equal(t, "rt-1", res.RefreshToken)
	assert.Equal(t, "authorization_code", f.lastForm.Get("grant_type"))
	assert.Equal(t, "https://cms.example.com/do/login", f.lastForm.Get("redirect_uri"))
}

func TestProvider_RequestToken_ProviderError(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.tokenStatus = http.StatusBadRequest
	f.tokenBody = map[string]any{"error": "invalid_grant", "error_description": "Code not valid"}

	_, err := p.RequestToken(context.Background(), "used-code", "https://cms.example.com/do/login")
	require.Error(t, err)

	var pf ports.ProviderFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, http.StatusBadRequest, pf.HTTPStatus())
	assert.Contains(t, pf.ResponseBody(), "invalid_grant")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "invalid_grant", pe.Code)
}

func TestProvider_RequestToken_EmptyBody(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.tokenBody = map[string]any{}

	res, err := p.RequestToken(context.Background(), "code-1", "https://cms.example.com/do/login")
	require.NoError(t, err)
	assert.Empty(t, res.AccessToken)
	assert.Empty(t, res.RefreshToken)
}

func TestProvider_RefreshToken_EmptyBody(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.tokenBody = map[string]any{}

	res, err := p.RefreshToken(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Empty(t, res.AccessToken)
}

func TestProvider_RefreshToken(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.tokenBody = map[string]any{"access_token": "at-2", "refresh_token": "rt-2", "token_type": "bearer", "expires_in": 300}

	res, err := p.RefreshToken(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", res.AccessToken)
	assert.Equal(t, "rt-2", res.RefreshToken)
	assert.Equal(t, "refresh_token", f.lastForm.Get("grant_type"))
	assert.Equal(t, "rt-1", f.lastForm.Get("refresh_token"))
}

func TestProvider_RefreshToken_Empty(t *testing.T) {
	p := newTestProvider(t, newFakeRealm(t))
	_, err := p.RefreshToken(context.Background(), "")
	require.Error(t, err)
}

func TestProvider_ValidateToken_Active(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.introspectBody = map[string]any{
		"active":          true,
		"username":        "alice",
		"resource_access": map[string]any{"cms": map[string]any{"roles": []string{"editor", "admin"}}},
	}

	v, err := p.ValidateToken(context.Background(), "at-1")
	require.NoError(t, err)
	require.True(t, v.Active())
	assert.Equal(t, "alice", v.Token.Username)
	assert.Equal(t, []string{"editor", "admin"}, v.Token.ClientRoles("cms"))
	assert.Contains(t, v.Token.Claims, "resource_access")
}

func TestProvider_ValidateToken_Inactive(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.introspectBody = map[string]any{"active": false}

	v, err := p.ValidateToken(context.Background(), "stale")
	require.NoError(t, err)
	assert.True(t, v.OK())
	assert.False(t, v.Active())
}

func TestProvider_ValidateToken_PreferredUsernameFallback(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.introspectBody = map[string]any{"active": true, "preferred_username": "bob"}

	v, err := p.ValidateToken(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "bob", v.Token.Username)
}

func TestProvider_ValidateToken_StatusPropagated(t *testing.T) {
	f := newFakeRealm(t)
	p := newTestProvider(t, f)
	f.introspectStatus = http.StatusNotFound

	v, err := p.ValidateToken(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, v.StatusCode)
	assert.Nil(t, v.Token)
	assert.EqualValues(t, 1, f.introspectCalls.Load())
}

package devauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/oidc-gate/internal/ports"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	prov, err := NewProvider(Config{Username: "dev-user", ClientID: "cms", Roles: []string{"admin"}})
	require.NoError(t, err)
	return prov
}

func codeFrom(t *testing.T, raw string) (string, string) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("code"), u.Query().Get("state")
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{ClientID: "cms"})
	require.Error(t, err)
	_, err = NewProvider(Config{Username: "u"})
	require.Error(t, err)
}

func TestProvider_LoginRoundTrip(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	redirect := prov.RedirectURL("http://localhost:8080/do/login", "state-1")
	require.True(t, strings.HasPrefix(redirect, "http://localhost:8080/do/login?"))
	code, state := codeFrom(t, redirect)
	assert.Equal(t, "state-1", state)

	res, err := prov.RequestToken(ctx, code, "http://localhost:8080/do/login")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	v, err := prov.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)
	require.True(t, v.Active())
	assert.Equal(t, "dev-user", v.Token.Username)
	assert.Equal(t, []string{"admin"}, v.Token.ClientRoles("cms"))

	// Codes are single-use.
	_, err = prov.RequestToken(ctx, code, "")
	var pf ports.ProviderFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, http.StatusBadRequest, pf.HTTPStatus())
	assert.Contains(t, pf.ResponseBody(), "invalid_grant")
}

func TestProvider_RefreshRotates(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	code, _ := codeFrom(t, prov.RedirectURL("http://x/cb", "s"))
	first, err := prov.RequestToken(ctx, code, "")
	require.NoError(t, err)

	second, err := prov.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	_, err = prov.RefreshToken(ctx, first.RefreshToken)
	require.Error(t, err)
}

func TestProvider_TokenExpiry(t *testing.T) {
	prov := newTestProvider(t)
	now := time.Now()
	prov.now = func() time.Time { return now }
	ctx := context.Background()

	code, _ := codeFrom(t, prov.RedirectURL("http://x/cb", "s"))
	res, err := prov.RequestToken(ctx, code, "")
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	v, err := prov.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.True(t, v.OK())
	assert.False(t, v.Active())
}

func TestProvider_LogoutURL(t *testing.T) {
	prov := newTestProvider(t)
	assert.Equal(t, "http://localhost:8080/app", prov.LogoutURL("http://localhost:8080/app"))
}

func TestProvider_AccessTokenIsSignedJWT(t *testing.T) {
	prov, err := NewProvider(Config{
		Username:   "dev-user",
		ClientID:   "cms",
		Roles:      []string{"admin", "editor"},
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)
	ctx := context.Background()

	code, _ := codeFrom(t, prov.RedirectURL("http://x/cb", "s"))
	res, err := prov.RequestToken(ctx, code, "")
	require.NoError(t, err)
	assert.Len(t, strings.Split(res.AccessToken, "."), 3)

	v, err := prov.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)
	require.True(t, v.Active())
	assert.Equal(t, "dev-user", v.Token.Claims["preferred_username"])
	assert.Equal(t, DefaultIssuer, v.Token.Claims["iss"])
	assert.Equal(t, map[string]any{"cms": map[string]any{"roles": []any{"admin", "editor"}}}, v.Token.Claims["resource_access"])
}

func TestProvider_RejectsForeignTokens(t *testing.T) {
	prov := newTestProvider(t)
	other := newTestProvider(t) // different random key
	ctx := context.Background()

	code, _ := codeFrom(t, other.RedirectURL("http://x/cb", "s"))
	res, err := other.RequestToken(ctx, code, "")
	require.NoError(t, err)

	for _, tok := range []string{res.AccessToken, "not-a-jwt", ""} {
		v, err := prov.ValidateToken(ctx, tok)
		require.NoError(t, err)
		assert.True(t, v.OK())
		assert.False(t, v.Active(), "token %q", tok)
	}
}

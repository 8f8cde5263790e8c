package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
)

func newEchoUpstream(t *testing.T) (*url.URL, *http.Header) {
	t.Helper()
	seen := &http.Header{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.Header.Clone()
		_, _ = io.WriteString(w, r.URL.RequestURI())
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u, seen
}

func TestUpstreamProxy_GuestHeaders(t *testing.T) {
	target, seen := newEchoUpstream(t)
	proxy := NewUpstreamProxy(UpstreamOptions{Target: target, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	req := httptest.NewRequest(http.MethodGet, "http://"+testHost+"/entando-de-app/page?x=1", nil)
	req.Header.Set(HeaderAuthUser, "admin")
	req.Header.Set(HeaderAuthRoles, "superuser")
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/entando-de-app/page?x=1", rec.Body.String())
	assert.Equal(t, "guest", seen.Get(HeaderAuthUser))
	assert.Equal(t, "true", seen.Get(HeaderAuthGuest))
	assert.Empty(t, seen.Get(HeaderAuthRoles), "spoofed roles must be stripped")
	assert.Equal(t, testHost, seen.Get("X-Forwarded-Host"))
}

func TestUpstreamProxy_AuthenticatedHeaders(t *testing.T) {
	target, seen := newEchoUpstream(t)
	proxy := NewUpstreamProxy(UpstreamOptions{Target: target})

	id := domainauth.Identity{Username: "editor", Roles: []string{"free:reader", "editor"}}
	id = id.WithGrant(domainauth.Grant{Name: domainauth.ProviderGrantName, Permissions: []string{"editor", "publisher"}})
	req := httptest.NewRequest(http.MethodGet, "http://"+testHost+"/api/pages", nil)
	req.Header.Set(HeaderAuthGuest, "true")
	req = req.WithContext(WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "editor", seen.Get(HeaderAuthUser))
	assert.Empty(t, seen.Get(HeaderAuthGuest))
	assert.Equal(t, "free:reader,editor,publisher", seen.Get(HeaderAuthRoles))
}

func TestUpstreamProxy_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	proxy := NewUpstreamProxy(UpstreamOptions{Target: target, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/page", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Upstream unavailable", decodeEnvelope(t, rec).Errors[0].Message)
}

func TestUpstreamProxy_NoTarget(t *testing.T) {
	rec := httptest.NewRecorder()
	NewUpstreamProxy(UpstreamOptions{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/page", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"errors":[{"code":"404","message":"Not Found"}],"metaData":{}}`, rec.Body.String())
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, dedupe(nil))
}

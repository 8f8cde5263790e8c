package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// Gate paths, relative to the application base path.
const (
	PathLogin        = "/do/login"
	PathLoginAction  = "/do/login.action"
	PathLogout       = "/do/logout"
	PathLogoutAction = "/do/logout.action"
	PathDescriptor   = "/keycloak.json"
	PathHealth       = "/healthz"
	PathMetrics      = "/metrics"

	// DefaultLandingPath is where a completed login lands without a stored redirect.
	DefaultLandingPath = "/do/main"
)

// urlBuilder derives absolute and application-relative URLs for a request.
type urlBuilder struct {
	basePath  string   // e.g. "/entando-de-app", "" for root
	publicURL *url.URL // optional scheme://host override
}

func newURLBuilder(basePath, publicURL string) (urlBuilder, error) {
	b := urlBuilder{basePath: cleanBasePath(basePath)}
	if publicURL != "" {
		u, err := url.Parse(publicURL)
		if err != nil {
			return b, err
		}
		b.publicURL = &url.URL{Scheme: u.Scheme, Host: u.Host}
	}
	return b, nil
}

func cleanBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}

// relPath returns the request path relative to the base path, and whether it is under it.
func (b urlBuilder) relPath(r *http.Request) (string, bool) {
	p := r.URL.Path
	if b.basePath == "" {
		return p, true
	}
	if p == b.basePath {
		return "/", true
	}
	if strings.HasPrefix(p, b.basePath+"/") {
		return strings.TrimPrefix(p, b.basePath), true
	}
	return p, false
}

// origin returns scheme://host for the request, honoring reverse-proxy headers.
func (b urlBuilder) origin(r *http.Request) string {
	if b.publicURL != nil {
		return b.publicURL.String()
	}
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}

// requestURL is the absolute request URL without query string.
func (b urlBuilder) requestURL(r *http.Request) string {
	return b.origin(r) + r.URL.Path
}

// appURL is the absolute URL of the application root.
func (b urlBuilder) appURL(r *http.Request) string {
	return b.origin(r) + b.basePath
}

// appPath prefixes rel with the base path.
func (b urlBuilder) appPath(rel string) string {
	return b.basePath + rel
}

// normalizeRedirectTo turns a redirectTo parameter into an application-relative path.
// Absolute URLs must point at this application; the result must be a local path.
func (b urlBuilder) normalizeRedirectTo(r *http.Request, raw string) (string, bool) {
	rel := raw
	if app := b.appURL(r); strings.HasPrefix(rel, app) {
		rel = strings.TrimPrefix(rel, app)
	} else if b.basePath != "" && (rel == b.basePath || strings.HasPrefix(rel, b.basePath+"/")) {
		rel = strings.TrimPrefix(rel, b.basePath)
	}
	if rel == "" {
		rel = "/"
	}
	if !strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "//") || strings.HasPrefix(rel, `/\`) {
		return "", false
	}
	if strings.ContainsAny(rel, "\r\n") {
		return "", false
	}
	return rel, true
}

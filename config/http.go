package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PublicURL pins scheme://host for URLs sent to the identity provider
	// (e.g., "https://cms.example.com"). Empty derives it from each request.
	PublicURL string `env:"APP_PUBLIC_URL" envDefault:""`

	// BasePath is the application context path, e.g. "/entando-de-app".
	BasePath string `env:"APP_BASE_PATH" envDefault:""`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// DefaultLandingPath is where a login lands without a stored redirect.
	DefaultLandingPath string `env:"DEFAULT_LANDING_PATH" envDefault:"/do/main"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.BasePath = strings.TrimSuffix(strings.TrimSpace(h.BasePath), "/")
	if h.BasePath != "" && !strings.HasPrefix(h.BasePath, "/") {
		h.BasePath = "/" + h.BasePath
	}
	h.DefaultLandingPath = strings.TrimSpace(h.DefaultLandingPath)
	if !strings.HasPrefix(h.DefaultLandingPath, "/") {
		h.DefaultLandingPath = "/" + h.DefaultLandingPath
	}
	h.PublicURL = strings.TrimSuffix(strings.TrimSpace(h.PublicURL), "/")
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}

// UpstreamConfig points at the application behind the gateway.
type UpstreamConfig struct {
	URL string `env:"UPSTREAM_URL" envDefault:""`
}

// Sanitize trims the upstream URL.
func (u *UpstreamConfig) Sanitize() {
	u.URL = strings.TrimSpace(u.URL)
}

// Validate checks the upstream URL is absolute when set.
func (u *UpstreamConfig) Validate() error {
	if u.URL == "" {
		return nil
	}
	parsed, err := url.Parse(u.URL)
	if err != nil {
		return fmt.Errorf("parse UPSTREAM_URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("UPSTREAM_URL must be an absolute http(s) URL")
	}
	return nil
}

// Target returns the parsed upstream URL, or nil when unset.
func (u *UpstreamConfig) Target() *url.URL {
	if u.URL == "" {
		return nil
	}
	parsed, err := url.Parse(u.URL)
	if err != nil {
		return nil
	}
	return parsed
}

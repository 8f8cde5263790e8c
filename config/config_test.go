package config

import (
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("KEYCLOAK_ENABLED", "true")
	t.Setenv("KEYCLOAK_AUTH_URL", "https://sso.example.com/auth/")
	t.Setenv("KEYCLOAK_REALM", "entando")
	t.Setenv("KEYCLOAK_CLIENT_ID", "entando-app")
	t.Setenv("KEYCLOAK_CLIENT_SECRET", "super-secret")
	t.Setenv("KEYCLOAK_PUBLIC_CLIENT_ID", "entando-web")
	t.Setenv("KEYCLOAK_SECURE_URIS", "/do/**, /api/admin/**,")
	t.Setenv("KEYCLOAK_ROLES_EXPRESSION", "realm_access.roles")
	t.Setenv("KEYCLOAK_DEFAULT_AUTHORIZATIONS", "free:reader")
	t.Setenv("KEYCLOAK_AUTO_PROVISION", "false")
	t.Setenv("KEYCLOAK_HTTP_TIMEOUT", "5s")
	t.Setenv("DEV_AUTH_USERNAME", "dev")
	t.Setenv("DEV_AUTH_ROLES", "superuser;editor")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expected := AuthConfig{
		Mode:                  AuthModeOAuth,
		Enabled:               true,
		AuthURL:               "https://sso.example.com/auth",
		Realm:                 "entando",
		ClientID:              "entando-app",
		ClientSecret:          "super-secret",
		PublicClientID:        "entando-web",
		Scope:                 "openid",
		HTTPTimeout:           5 * time.Second,
		SecureURIs:            []string{"/do/**", "/api/admin/**"},
		APIPathPattern:        "/api/**",
		RolesExpression:       "realm_access.roles",
		DefaultAuthorizations: "free:reader",
		AutoProvision:         false,
		DevAuth: DevAuthConfig{
			Username: "dev",
			Roles:    []string{"superuser", "editor"},
			TokenTTL: 5 * time.Minute,
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	var m AuthMode
	if err := m.UnmarshalText([]byte("MOCK")); err != nil || m != AuthModeMock {
		t.Fatalf("UnmarshalText(MOCK) = %v, mode %q", err, m)
	}
	if err := m.UnmarshalText([]byte("saml")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		wantErr string
	}{
		{
			name: "disabled gates need no provider",
			cfg:  AppConfig{Auth: AuthConfig{Mode: AuthModeOAuth}},
		},
		{
			name:    "oauth mode lists missing settings",
			cfg:     AppConfig{Auth: AuthConfig{Mode: AuthModeOAuth, Enabled: true, ClientID: "c"}},
			wantErr: "KEYCLOAK_AUTH_URL, KEYCLOAK_REALM, KEYCLOAK_CLIENT_SECRET",
		},
		{
			name:    "mock mode outside dev",
			cfg:     AppConfig{Auth: AuthConfig{Mode: AuthModeMock, Enabled: true, ClientID: "c"}},
			wantErr: "AUTH_MODE=mock requires DEV=true",
		},
		{
			name: "mock mode in dev",
			cfg:  AppConfig{IsDev: true, Auth: AuthConfig{Mode: AuthModeMock, Enabled: true, ClientID: "c"}},
		},
		{
			name:    "relative upstream",
			cfg:     AppConfig{Upstream: UpstreamConfig{URL: "cms:8080"}},
			wantErr: "UPSTREAM_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{
		BasePath:           "entando-de-app/",
		DefaultLandingPath: "do/main",
		PublicURL:          " https://cms.example.com/ ",
	}

	cfg.Sanitize()

	if cfg.BasePath != "/entando-de-app" {
		t.Errorf("BasePath = %q", cfg.BasePath)
	}
	if cfg.DefaultLandingPath != "/do/main" {
		t.Errorf("DefaultLandingPath = %q", cfg.DefaultLandingPath)
	}
	if cfg.PublicURL != "https://cms.example.com" {
		t.Errorf("PublicURL = %q", cfg.PublicURL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestUpstreamConfig_Target(t *testing.T) {
	if (&UpstreamConfig{}).Target() != nil {
		t.Fatal("expected nil target when unset")
	}
	u := UpstreamConfig{URL: "http://cms:8080"}
	if got := u.Target(); got == nil || got.Host != "cms:8080" {
		t.Fatalf("Target() = %v", got)
	}
}

func TestSessionConfig_Sanitize(t *testing.T) {
	cfg := SessionConfig{CookieName: " ", TTL: time.Second}
	cfg.Sanitize()

	if cfg.CookieName != "OIDCGATE_SESSION" {
		t.Errorf("CookieName = %q", cfg.CookieName)
	}
	if cfg.TTL != time.Minute {
		t.Errorf("TTL = %v, want clamp to 1m", cfg.TTL)
	}
}

func TestObservabilityConfig_Level(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := ObservabilityConfig{LogLevel: in}
		cfg.Sanitize()
		if got := cfg.Level(); got != want {
			t.Errorf("Level(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() || cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("unexpected metrics config: %#v", cfg)
	}
}

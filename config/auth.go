package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth talks to the configured OIDC identity provider.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses a local token service (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// DevAuthConfig controls the identity minted by the mock token service.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Username string        `env:"USERNAME"  envDefault:"admin"`
	Roles    []string      `env:"ROLES"     envDefault:"superuser" envSeparator:";"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"5m"`

	// SigningKey signs dev access tokens. Empty generates a key per process.
	SigningKey string `env:"SIGNING_KEY"`
}

// AuthConfig groups identity provider and gate configuration.
type AuthConfig struct {
	// Mode determines which token service to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// Enabled turns both gates on. When false every request passes through as guest.
	Enabled bool `env:"KEYCLOAK_ENABLED" envDefault:"false"`

	// AuthURL is the provider base URL, e.g. https://sso.example.com/auth.
	AuthURL string `env:"KEYCLOAK_AUTH_URL"`
	Realm   string `env:"KEYCLOAK_REALM"    envDefault:"entando"`

	// Confidential client used for code exchange and introspection.
	ClientID     string `env:"KEYCLOAK_CLIENT_ID"     envDefault:"entando-app"`
	ClientSecret string `env:"KEYCLOAK_CLIENT_SECRET"`

	// PublicClientID is advertised to browsers through keycloak.json.
	PublicClientID string `env:"KEYCLOAK_PUBLIC_CLIENT_ID" envDefault:"entando-web"`

	Scope       string        `env:"KEYCLOAK_SCOPE"        envDefault:"openid"`
	HTTPTimeout time.Duration `env:"KEYCLOAK_HTTP_TIMEOUT" envDefault:"30s"`

	// SecureURIs are path patterns (relative to the base path) that require a named identity.
	SecureURIs []string `env:"KEYCLOAK_SECURE_URIS" envSeparator:","`

	// APIPathPattern selects requests handled by the bearer gate.
	APIPathPattern string `env:"KEYCLOAK_API_PATH_PATTERN" envDefault:"/api/**"`

	// RolesExpression is a JMESPath expression over introspection claims.
	// Empty selects resource_access.<client id>.roles.
	RolesExpression string `env:"KEYCLOAK_ROLES_EXPRESSION"`

	// DefaultAuthorizations are group[:role] memberships given to every provisioned user.
	DefaultAuthorizations string `env:"KEYCLOAK_DEFAULT_AUTHORIZATIONS"`

	// AutoProvision lets unknown provider users sign in.
	AutoProvision bool `env:"KEYCLOAK_AUTO_PROVISION" envDefault:"true"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize normalises URLs and pattern lists.
func (c *AuthConfig) Sanitize() {
	c.AuthURL = strings.TrimSuffix(strings.TrimSpace(c.AuthURL), "/")
	c.Realm = strings.TrimSpace(c.Realm)
	c.Scope = strings.TrimSpace(c.Scope)
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.APIPathPattern = strings.TrimSpace(c.APIPathPattern); c.APIPathPattern == "" {
		c.APIPathPattern = "/api/**"
	}
	uris := c.SecureURIs[:0]
	for _, u := range c.SecureURIs {
		if u = strings.TrimSpace(u); u != "" {
			uris = append(uris, u)
		}
	}
	c.SecureURIs = uris
}

// Validate checks the provider settings required by the selected mode.
func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ClientID == "" {
		return errors.New("KEYCLOAK_CLIENT_ID is required")
	}
	if c.Mode != AuthModeOAuth {
		return nil
	}

	var missing []string
	if c.AuthURL == "" {
		missing = append(missing, "KEYCLOAK_AUTH_URL")
	}
	if c.Realm == "" {
		missing = append(missing, "KEYCLOAK_REALM")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "KEYCLOAK_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("oauth mode requires %s", strings.Join(missing, ", "))
	}
	return nil
}

// Package devauth provides a self-contained TokenService for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	"github.com/target/oidc-gate/internal/ports"
)

var (
	_ ports.TokenService    = (*Provider)(nil)
	_ ports.ProviderFailure = (*GrantError)(nil)
)

// DefaultIssuer is the iss claim of minted access tokens.
const DefaultIssuer = "oidc-gate-dev"

// Config controls the dev token service.
type Config struct {
	Username string
	ClientID string
	Roles    []string
	TokenTTL time.Duration // default 5m when zero

	// SigningKey is the HS256 key for access tokens. A random key is
	// generated when empty, so tokens do not survive a restart.
	SigningKey []byte
	Issuer     string
}

// Provider implements ports.TokenService without an identity provider.
// RedirectURL points straight back at the callback with a locally minted code.
// Access tokens are signed JWTs checked statelessly; codes and refresh tokens
// are single-use values tracked in memory.
type Provider struct {
	cfg    Config
	now    func() time.Time
	parser *jwt.Parser

	mu      sync.Mutex
	codes   map[string]struct{}
	refresh map[string]struct{}
}

// accessClaims mirrors the provider claims the gates and role extractor read.
type accessClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string                           `json:"preferred_username"`
	ResourceAccess    map[string]domainauth.TokenRoles `json:"resource_access,omitempty"`
}

// NewProvider constructs a dev token service from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Username == "" {
		return nil, errors.New("dev auth: Username is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("dev auth: ClientID is required")
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if len(cfg.SigningKey) == 0 {
		cfg.SigningKey = make([]byte, 32)
		if _, err := rand.Read(cfg.SigningKey); err != nil {
			return nil, fmt.Errorf("dev auth: generate signing key: %w", err)
		}
	}
	cfg.Roles = append([]string(nil), cfg.Roles...)

	p := &Provider{
		cfg:     cfg,
		now:     time.Now,
		codes:   make(map[string]struct{}),
		refresh: make(map[string]struct{}),
	}
	p.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return p.now() }),
	)
	return p, nil
}

// RedirectURL returns the callback itself with a fresh single-use code and the given state.
func (p *Provider) RedirectURL(callback, state string) string {
	code := uuid.NewString()
	p.mu.Lock()
	p.codes[code] = struct{}{}
	p.mu.Unlock()

	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)
	sep := "?"
	if strings.Contains(callback, "?") {
		sep = "&"
	}
	return callback + sep + q.Encode()
}

// LogoutURL has no provider session to end, so it returns the post-logout URI.
func (p *Provider) LogoutURL(postLogoutURI string) string {
	return postLogoutURI
}

// RequestToken redeems a code minted by RedirectURL exactly once.
func (p *Provider) RequestToken(_ context.Context, code, _ string) (domainauth.AuthResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.codes[code]; !ok {
		return domainauth.AuthResult{}, newGrantError("Code not valid")
	}
	delete(p.codes, code)
	return p.issueLocked()
}

// RefreshToken rotates a refresh token; each refresh token is single-use.
func (p *Provider) RefreshToken(_ context.Context, refreshToken string) (domainauth.AuthResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.refresh[refreshToken]; !ok {
		return domainauth.AuthResult{}, newGrantError("Invalid refresh token")
	}
	delete(p.refresh, refreshToken)
	return p.issueLocked()
}

// ValidateToken verifies the JWT signature, issuer and expiry. Anything that
// fails verification introspects as inactive, like an unknown token would.
func (p *Provider) ValidateToken(_ context.Context, token string) (domainauth.TokenValidation, error) {
	var claims accessClaims
	_, err := p.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return p.cfg.SigningKey, nil
	})
	if err != nil {
		return domainauth.TokenValidation{StatusCode: http.StatusOK, Token: &domainauth.AccessToken{Active: false}}, nil
	}

	return domainauth.TokenValidation{
		StatusCode: http.StatusOK,
		Token: &domainauth.AccessToken{
			Active:         true,
			Username:       claims.PreferredUsername,
			ResourceAccess: claims.ResourceAccess,
			Claims:         introspectionClaims(claims),
		},
	}, nil
}

func (p *Provider) issueLocked() (domainauth.AuthResult, error) {
	now := p.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.cfg.Issuer,
			Subject:   p.cfg.Username,
			Audience:  jwt.ClaimStrings{p.cfg.ClientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
		PreferredUsername: p.cfg.Username,
		ResourceAccess: map[string]domainauth.TokenRoles{
			p.cfg.ClientID: {Roles: append([]string(nil), p.cfg.Roles...)},
		},
	}
	at, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.cfg.SigningKey)
	if err != nil {
		return domainauth.AuthResult{}, fmt.Errorf("sign access token: %w", err)
	}
	rt := uuid.NewString()
	p.refresh[rt] = struct{}{}
	return domainauth.AuthResult{AccessToken: at, RefreshToken: rt}, nil
}

// introspectionClaims renders verified claims the way an introspection
// endpoint returns them, so custom roles expressions see the same shape.
func introspectionClaims(c accessClaims) map[string]any {
	access := make(map[string]any, len(c.ResourceAccess))
	for client, r := range c.ResourceAccess {
		roles := make([]any, len(r.Roles))
		for i, role := range r.Roles {
			roles[i] = role
		}
		access[client] = map[string]any{"roles": roles}
	}
	out := map[string]any{
		"active":             true,
		"username":           c.PreferredUsername,
		"preferred_username": c.PreferredUsername,
		"sub":                c.Subject,
		"iss":                c.Issuer,
		"jti":                c.ID,
		"resource_access":    access,
	}
	if c.ExpiresAt != nil {
		out["exp"] = float64(c.ExpiresAt.Unix())
	}
	if len(c.Audience) > 0 {
		out["aud"] = c.Audience[0]
	}
	return out
}

// GrantError mimics the provider's invalid_grant answer.
type GrantError struct {
	Description string
}

func newGrantError(desc string) *GrantError { return &GrantError{Description: desc} }

func (e *GrantError) Error() string { return "dev auth: invalid_grant: " + e.Description }

// HTTPStatus returns 400 like a real token endpoint.
func (e *GrantError) HTTPStatus() int { return http.StatusBadRequest }

// ResponseBody returns an OAuth2 error document.
func (e *GrantError) ResponseBody() string {
	return fmt.Sprintf(`{"error":"invalid_grant","error_description":%q}`, e.Description)
}

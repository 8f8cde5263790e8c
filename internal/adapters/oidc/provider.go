// Package oidc provides the identity-provider TokenService backed by a Keycloak-style OIDC realm.
package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	"github.com/target/oidc-gate/internal/observability/metrics"
	"github.com/target/oidc-gate/internal/observability/statsd"
	"github.com/target/oidc-gate/internal/ports"
	"golang.org/x/oauth2"
)

const maxIntrospectionBody = 1 << 20

var _ ports.TokenService = (*Provider)(nil)

// Provider implements ports.TokenService against a single realm.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	issuer     string

	introspectionURL string
	endSessionURL    string

	logger  *slog.Logger
	metrics statsd.Sink
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	AuthServerURL string // e.g. https://sso.example.com/auth
	Realm         string
	ClientID      string
	ClientSecret  string
	Scope         string
	HTTPClient    *http.Client  // Optional; built from Timeout when nil
	Timeout       time.Duration // default 30s
	Logger        *slog.Logger
	Metrics       statsd.Sink
}

// realmEndpoints are the discovery fields go-oidc does not expose directly.
type realmEndpoints struct {
	IntrospectionEndpoint string `json:"introspection_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// IssuerURL returns the realm issuer for an auth server base URL.
func IssuerURL(authServerURL, realm string) string {
	return strings.TrimSuffix(authServerURL, "/") + "/realms/" + url.PathEscape(realm)
}

// NewProvider discovers the realm endpoints and builds the token service.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.AuthServerURL == "" {
		return nil, errors.New("auth server URL is required")
	}
	if config.Realm == "" {
		return nil, errors.New("realm is required")
	}
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	issuer := IssuerURL(config.AuthServerURL, config.Realm)
	op, err := gooidc.NewProvider(context.WithValue(ctx, oauth2.HTTPClient, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	var extra realmEndpoints
	if claimsErr := op.Claims(&extra); claimsErr != nil {
		return nil, fmt.Errorf("decode discovery document: %w", claimsErr)
	}
	if extra.IntrospectionEndpoint == "" {
		extra.IntrospectionEndpoint = issuer + "/protocol/openid-connect/token/introspect"
	}
	if extra.EndSessionEndpoint == "" {
		extra.EndSessionEndpoint = issuer + "/protocol/openid-connect/logout"
	}

	scopes := strings.Fields(config.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		httpClient:       httpClient,
		issuer:           issuer,
		introspectionURL: extra.IntrospectionEndpoint,
		endSessionURL:    extra.EndSessionEndpoint,
		logger:           logger,
		metrics:          config.Metrics,
	}, nil
}

// Issuer returns the discovered realm issuer.
func (p *Provider) Issuer() string { return p.issuer }

// RedirectURL builds the authorization endpoint URL for a code round trip.
func (p *Provider) RedirectURL(callback, state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("redirect_uri", callback),
		oauth2.SetAuthURLParam("response_type", "code"),
	)
}

// LogoutURL builds the realm end-session URL.
func (p *Provider) LogoutURL(postLogoutURI string) string {
	q := url.Values{}
	q.Set("client_id", p.config.ClientID)
	if postLogoutURI != "" {
		q.Set("post_logout_redirect_uri", postLogoutURI)
	}
	sep := "?"
	if strings.Contains(p.endSessionURL, "?") {
		sep = "&"
	}
	return p.endSessionURL + sep + q.Encode()
}

// RequestToken exchanges an authorization code for a token pair.
func (p *Provider) RequestToken(ctx context.Context, code, redirectURI string) (domainauth.AuthResult, error) {
	if code == "" {
		return domainauth.AuthResult{}, errors.New("authorization code is required")
	}
	start := time.Now()
	tok, err := p.config.Exchange(p.clientContext(ctx), code, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	p.observe("request_token", start, err)
	if missingAccessToken(err) {
		return domainauth.AuthResult{}, nil
	}
	if err != nil {
		return domainauth.AuthResult{}, mapTokenError("exchange code", err)
	}
	return authResult(tok), nil
}

// RefreshToken redeems a refresh token for a new token pair.
func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (domainauth.AuthResult, error) {
	if refreshToken == "" {
		return domainauth.AuthResult{}, errors.New("refresh token is required")
	}
	start := time.Now()
	// An empty access token is never valid, so the source always hits the token endpoint.
	src := p.config.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	p.observe("refresh_token", start, err)
	if missingAccessToken(err) {
		return domainauth.AuthResult{}, nil
	}
	if err != nil {
		return domainauth.AuthResult{}, mapTokenError("refresh token", err)
	}
	return authResult(tok), nil
}

// ValidateToken introspects an access token. Non-2xx answers come back as a
// TokenValidation with a nil Token; only transport and decode failures are errors.
func (p *Provider) ValidateToken(ctx context.Context, token string) (domainauth.TokenValidation, error) {
	start := time.Now()
	v, err := p.introspect(ctx, token)
	p.observe("validate_token", start, err)
	return v, err
}

func (p *Provider) introspect(ctx context.Context, token string) (domainauth.TokenValidation, error) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", "access_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.introspectionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return domainauth.TokenValidation{}, fmt.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(p.config.ClientID), url.QueryEscape(p.config.ClientSecret))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domainauth.TokenValidation{}, fmt.Errorf("introspect token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIntrospectionBody))
	if err != nil {
		return domainauth.TokenValidation{StatusCode: resp.StatusCode}, fmt.Errorf("read introspection body: %w", err)
	}

	out := domainauth.TokenValidation{StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.DebugContext(ctx, "token introspection refused",
			"status", resp.StatusCode,
			"body", truncate(string(body), 256))
		return out, nil
	}

	tok, err := decodeAccessToken(body)
	if err != nil {
		return out, err
	}
	out.Token = tok
	return out, nil
}

func decodeAccessToken(body []byte) (*domainauth.AccessToken, error) {
	var tok domainauth.AccessToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decode introspection body: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("decode introspection claims: %w", err)
	}
	tok.Claims = claims
	if tok.Username == "" {
		if pu, ok := claims["preferred_username"].(string); ok {
			tok.Username = pu
		}
	}
	return &tok, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *Provider) observe(op string, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitProviderCall(p.metrics, metrics.ProviderMetric{
		Op:       op,
		Result:   result,
		Duration: time.Since(start),
		Err:      err,
	})
}

func authResult(tok *oauth2.Token) domainauth.AuthResult {
	if tok == nil {
		return domainauth.AuthResult{}
	}
	return domainauth.AuthResult{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

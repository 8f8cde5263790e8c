package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/oidc-gate/config"
	"github.com/target/oidc-gate/internal/adapters/authroles"
	"github.com/target/oidc-gate/internal/adapters/devauth"
	"github.com/target/oidc-gate/internal/adapters/oidc"
	redisadapter "github.com/target/oidc-gate/internal/adapters/redis"
	httpx "github.com/target/oidc-gate/internal/http"
	"github.com/target/oidc-gate/internal/observability/statsd"
	"github.com/target/oidc-gate/internal/ports"
	"github.com/target/oidc-gate/internal/service"
)

// AuthConfig contains configuration for the authentication components.
type AuthConfig struct {
	Auth        config.AuthConfig
	HTTP        config.HTTPConfig
	Session     config.SessionConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	Metrics     statsd.Sink

	// Tokens overrides the token service built from Auth. Used by tests.
	Tokens ports.TokenService
}

// Gates bundles the request filters built from AuthConfig.
type Gates struct {
	Token      *httpx.TokenGate
	Bearer     *httpx.BearerGate
	SecureURIs *httpx.SecureURIGuard
	Identities *service.IdentityService
}

// BuildTokenService creates the token service for the configured auth mode.
//
//nolint:ireturn // mode selects the concrete provider at runtime.
func BuildTokenService(ctx context.Context, cfg AuthConfig) (ports.TokenService, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			Username:   cfg.Auth.DevAuth.Username,
			ClientID:   cfg.Auth.ClientID,
			Roles:      cfg.Auth.DevAuth.Roles,
			TokenTTL:   cfg.Auth.DevAuth.TokenTTL,
			SigningKey: []byte(cfg.Auth.DevAuth.SigningKey),
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		if cfg.Logger != nil {
			cfg.Logger.Warn("dev auth enabled; every login succeeds", "user", cfg.Auth.DevAuth.Username)
		}
		return prov, nil

	case config.AuthModeOAuth:
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			AuthServerURL: cfg.Auth.AuthURL,
			Realm:         cfg.Auth.Realm,
			ClientID:      cfg.Auth.ClientID,
			ClientSecret:  cfg.Auth.ClientSecret,
			Scope:         cfg.Auth.Scope,
			Timeout:       cfg.Auth.HTTPTimeout,
			Logger:        cfg.Logger,
			Metrics:       cfg.Metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

// BuildIdentityService creates the identity service backed by the Redis user directory.
func BuildIdentityService(cfg AuthConfig) (*service.IdentityService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("identity service requires a redis client")
	}
	defaults, err := authroles.ParseAuthorizations(cfg.Auth.DefaultAuthorizations)
	if err != nil {
		return nil, fmt.Errorf("parse KEYCLOAK_DEFAULT_AUTHORIZATIONS: %w", err)
	}
	return service.NewIdentityService(service.IdentityServiceOptions{
		Directory:             redisadapter.NewUserDirectory(cfg.RedisClient, cfg.Session.UserPrefix),
		DefaultAuthorizations: defaults,
		AutoProvision:         cfg.Auth.AutoProvision,
		Logger:                cfg.Logger,
	}), nil
}

// BuildGates creates the token gate, bearer gate and secure-URI guard.
// With auth disabled the gates pass every request through as guest and no
// token service is built.
func BuildGates(ctx context.Context, cfg AuthConfig) (*Gates, error) {
	identities, err := BuildIdentityService(cfg)
	if err != nil {
		return nil, err
	}

	tokens := cfg.Tokens
	if cfg.Auth.Enabled && tokens == nil {
		if tokens, err = BuildTokenService(ctx, cfg); err != nil {
			return nil, err
		}
	}

	var roles ports.RoleExtractor
	if cfg.Auth.Enabled {
		extractor, exErr := authroles.NewClaimsRoleExtractor(cfg.Auth.RolesExpression, cfg.Auth.ClientID)
		if exErr != nil {
			return nil, fmt.Errorf("compile KEYCLOAK_ROLES_EXPRESSION: %w", exErr)
		}
		roles = extractor
	}

	apiPaths := httpx.NewPathMatcher([]string{cfg.Auth.APIPathPattern})

	tokenGate, err := httpx.NewTokenGate(httpx.TokenGateOptions{
		Enabled:        cfg.Auth.Enabled,
		Tokens:         tokens,
		Identities:     identities,
		Roles:          roles,
		BasePath:       cfg.HTTP.BasePath,
		PublicURL:      cfg.HTTP.PublicURL,
		DefaultLanding: cfg.HTTP.DefaultLandingPath,
		Descriptor:     httpx.NewClientDescriptor(cfg.Auth.Realm, cfg.Auth.AuthURL, cfg.Auth.PublicClientID),
		Logger:         cfg.Logger,
		Metrics:        cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build token gate: %w", err)
	}

	bearerGate, err := httpx.NewBearerGate(httpx.BearerGateOptions{
		Enabled:    cfg.Auth.Enabled,
		Tokens:     tokens,
		Identities: identities,
		Roles:      roles,
		APIPaths:   apiPaths,
		BasePath:   cfg.HTTP.BasePath,
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build bearer gate: %w", err)
	}

	guard, err := httpx.NewSecureURIGuard(httpx.SecureURIGuardOptions{
		Enabled:   cfg.Auth.Enabled,
		Secure:    httpx.NewPathMatcher(cfg.Auth.SecureURIs),
		APIPaths:  apiPaths,
		BasePath:  cfg.HTTP.BasePath,
		PublicURL: cfg.HTTP.PublicURL,
		Logger:    cfg.Logger,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build secure uri guard: %w", err)
	}

	return &Gates{
		Token:      tokenGate,
		Bearer:     bearerGate,
		SecureURIs: guard,
		Identities: identities,
	}, nil
}

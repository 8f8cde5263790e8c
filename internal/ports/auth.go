package ports

// Package ports defines interfaces (hexagonal ports) for the gateway's collaborators.
// Implementations live in internal/adapters; orchestration in internal/service and internal/http.

import (
	"context"

	domainauth "github.com/target/oidc-gate/internal/domain/auth"
)

// TokenService talks to the identity provider on behalf of both gates.
type TokenService interface {
	// RequestToken exchanges an authorization code for a token pair.
	// redirectURI must equal the URI used to obtain the code.
	RequestToken(ctx context.Context, code, redirectURI string) (domainauth.AuthResult, error)

	// ValidateToken introspects an access token. A non-2xx provider answer is
	// reported through TokenValidation.StatusCode, not as an error.
	ValidateToken(ctx context.Context, token string) (domainauth.TokenValidation, error)

	// RefreshToken redeems a refresh token for a new token pair.
	RefreshToken(ctx context.Context, refreshToken string) (domainauth.AuthResult, error)

	// RedirectURL builds the provider authorization URL for a login round trip.
	RedirectURL(callback, state string) string

	// LogoutURL builds the provider end-session URL.
	LogoutURL(postLogoutURI string) string
}

// ProviderFailure is implemented by errors that carry the provider's HTTP answer.
type ProviderFailure interface {
	error
	HTTPStatus() int
	ResponseBody() string
}

// IdentityResolver maps provider usernames onto application identities.
type IdentityResolver interface {
	GetUser(ctx context.Context, username string) (domainauth.Identity, error)
	GuestUser() domainauth.Identity
	// Provision persists role memberships for identity. It must be idempotent.
	Provision(ctx context.Context, identity domainauth.Identity, roles []string) error
}

// RoleExtractor pulls client roles out of an introspected token.
type RoleExtractor interface {
	Roles(tok domainauth.AccessToken) ([]string, error)
}

// SessionStore persists and retrieves browser sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// UserDirectory stores provisioned users and their memberships.
type UserDirectory interface {
	GetUser(ctx context.Context, username string) (domainauth.UserRecord, error)
	PutUser(ctx context.Context, rec domainauth.UserRecord) error
	ListUsers(ctx context.Context) ([]domainauth.UserRecord, error)
}

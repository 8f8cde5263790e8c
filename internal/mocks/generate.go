// Package mocks provides gomock implementations of the gateway ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// identity-provider and identity-resolution ports, so gate tests can assert exact call sequences.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	tokens := mocks.NewMockTokenService(ctrl)
//	tokens.EXPECT().ValidateToken(gomock.Any(), "at").Return(validation, nil)
package mocks

// Generate mock for TokenService interface from internal/ports package.
// This creates MockTokenService with methods for all TokenService interface methods:
// RequestToken, ValidateToken, RefreshToken, RedirectURL, LogoutURL
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_service_mock.go github.com/target/oidc-gate/internal/ports TokenService

// Generate mock for IdentityResolver interface from internal/ports package.
// This creates MockIdentityResolver with methods for all IdentityResolver interface methods:
// GetUser, GuestUser, Provision
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_resolver_mock.go github.com/target/oidc-gate/internal/ports IdentityResolver

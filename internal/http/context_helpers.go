package httpx

import (
	"context"

	domainauth "github.com/target/oidc-gate/internal/domain/auth"
)

// Context key types are unexported to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same keys.
type (
	sessionKey  struct{}
	identityKey struct{}
)

// WithIdentity returns a child context carrying the identity the request acts as.
func WithIdentity(ctx context.Context, id domainauth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity installed by a gate and whether one was set.
func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domainauth.Identity)
	return id, ok
}

// CurrentIdentity returns the request identity, falling back to the session user and then guest.
func CurrentIdentity(ctx context.Context) domainauth.Identity {
	if id, ok := IdentityFromContext(ctx); ok {
		return id
	}
	if h := sessionFromContext(ctx); h != nil {
		return h.Data().User()
	}
	return domainauth.GuestIdentity()
}

// IsGuestUser reports whether the current request acts as the guest identity.
func IsGuestUser(ctx context.Context) bool {
	return CurrentIdentity(ctx).IsGuest()
}

func withSession(ctx context.Context, h *SessionHandle) context.Context {
	return context.WithValue(ctx, sessionKey{}, h)
}

func sessionFromContext(ctx context.Context) *SessionHandle {
	h, _ := ctx.Value(sessionKey{}).(*SessionHandle)
	return h
}

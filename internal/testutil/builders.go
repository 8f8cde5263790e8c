package testutil

import (
	"time"

	domainauth "github.com/target/oidc-gate/internal/domain/auth"
)

// SessionBuilder provides a fluent interface for building sessions in tests.
type SessionBuilder struct {
	sess domainauth.Session
}

// NewSession creates a SessionBuilder for a guest session that expires in an hour.
func NewSession(id string) *SessionBuilder {
	return &SessionBuilder{sess: domainauth.Session{ID: id, ExpiresAt: time.Now().Add(time.Hour)}}
}

// WithTokens sets the stored access and refresh tokens.
func (b *SessionBuilder) WithTokens(access, refresh string) *SessionBuilder {
	b.sess.AccessToken = access
	b.sess.RefreshToken = refresh
	return b
}

// WithUser sets the current identity.
func (b *SessionBuilder) WithUser(username string, roles ...string) *SessionBuilder {
	b.sess.SetUser(domainauth.Identity{Username: username, Roles: roles})
	return b
}

// WithPendingState sets the outstanding login state.
func (b *SessionBuilder) WithPendingState(state string) *SessionBuilder {
	b.sess.PendingState = state
	return b
}

// WithRedirect sets the post-login redirect.
func (b *SessionBuilder) WithRedirect(path string) *SessionBuilder {
	b.sess.PostLoginRedirect = path
	return b
}

// Build returns the session.
func (b *SessionBuilder) Build() domainauth.Session {
	return b.sess
}

// ActiveToken builds an active introspection result for username carrying roles on clientID.
func ActiveToken(username, clientID string, roles ...string) domainauth.TokenValidation {
	return domainauth.TokenValidation{
		StatusCode: 200,
		Token: &domainauth.AccessToken{
			Active:   true,
			Username: username,
			ResourceAccess: map[string]domainauth.TokenRoles{
				clientID: {Roles: roles},
			},
			Claims: map[string]any{
				"active":   true,
				"username": username,
				"resource_access": map[string]any{
					clientID: map[string]any{"roles": toAny(roles)},
				},
			},
		},
	}
}

// InactiveToken builds a 200 introspection result for an inactive token.
func InactiveToken() domainauth.TokenValidation {
	return domainauth.TokenValidation{StatusCode: 200, Token: &domainauth.AccessToken{Active: false}}
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

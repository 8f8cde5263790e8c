// Package auth contains domain-level types for tokens, identities and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"slices"
	"time"
)

// GuestUsername is the username carried by the anonymous identity.
const GuestUsername = "guest"

// ProviderGrantName names the transient grant built from identity-provider roles.
const ProviderGrantName = "keycloak"

// Grant is a named set of permissions attached to an identity for the current request.
// Grants are never persisted.
type Grant struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Identity is the principal the application acts on behalf of.
// Exactly one identity is current per session; anonymous callers get the guest identity.
type Identity struct {
	Username string   `json:"username"`
	Guest    bool     `json:"guest"`
	Roles    []string `json:"roles,omitempty"` // persisted memberships
	Grants   []Grant  `json:"-"`
}

// GuestIdentity returns the anonymous identity.
func GuestIdentity() Identity {
	return Identity{Username: GuestUsername, Guest: true}
}

// IsGuest reports whether the identity is anonymous.
func (i Identity) IsGuest() bool { return i.Guest || i.Username == "" }

// WithGrant returns a copy of the identity carrying grant, replacing any grant of the same name.
func (i Identity) WithGrant(g Grant) Identity {
	out := i
	out.Grants = make([]Grant, 0, len(i.Grants)+1)
	for _, existing := range i.Grants {
		if existing.Name != g.Name {
			out.Grants = append(out.Grants, existing)
		}
	}
	out.Grants = append(out.Grants, g)
	return out
}

// Grant returns the grant with the given name.
func (i Identity) Grant(name string) (Grant, bool) {
	for _, g := range i.Grants {
		if g.Name == name {
			return g, true
		}
	}
	return Grant{}, false
}

// HasPermission reports whether any grant or persisted role carries perm.
func (i Identity) HasPermission(perm string) bool {
	if slices.Contains(i.Roles, perm) {
		return true
	}
	for _, g := range i.Grants {
		if slices.Contains(g.Permissions, perm) {
			return true
		}
	}
	return false
}

// AuthResult is the token pair returned by a code exchange or refresh.
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenRoles lists the roles granted for a single client.
type TokenRoles struct {
	Roles []string `json:"roles"`
}

// AccessToken is the introspected form of an access token.
type AccessToken struct {
	Active         bool                  `json:"active"`
	Username       string                `json:"username"`
	ResourceAccess map[string]TokenRoles `json:"resource_access,omitempty"`
	Claims         map[string]any        `json:"-"`
}

// ClientRoles returns the roles the token grants for clientID.
func (t AccessToken) ClientRoles(clientID string) []string {
	if t.ResourceAccess == nil {
		return nil
	}
	return t.ResourceAccess[clientID].Roles
}

// TokenValidation couples the provider's HTTP status with the introspected token.
// Token is nil when the provider returned no body.
type TokenValidation struct {
	StatusCode int
	Token      *AccessToken
}

// OK reports whether the provider answered with a 2xx status.
func (v TokenValidation) OK() bool { return v.StatusCode >= 200 && v.StatusCode < 300 }

// Active reports whether the validation succeeded and the token is active.
func (v TokenValidation) Active() bool { return v.OK() && v.Token != nil && v.Token.Active }

// Session is the server-side state attached to a browser session.
type Session struct {
	ID                string    `json:"id"`
	AccessToken       string    `json:"access-token,omitempty"`
	RefreshToken      string    `json:"refresh-token,omitempty"`
	PendingState      string    `json:"pending-state,omitempty"`
	PostLoginRedirect string    `json:"post-login-redirect,omitempty"`
	CurrentUser       *Identity `json:"current-user,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// User returns the current identity, or guest when none is set.
func (s Session) User() Identity {
	if s.CurrentUser == nil {
		return GuestIdentity()
	}
	return *s.CurrentUser
}

// SetUser replaces the current identity.
func (s *Session) SetUser(id Identity) {
	s.CurrentUser = &id
}

// ClearTokens drops both stored tokens.
func (s *Session) ClearTokens() {
	s.AccessToken = ""
	s.RefreshToken = ""
}

// Reset clears everything but the session id and expiry.
func (s *Session) Reset() {
	*s = Session{ID: s.ID, ExpiresAt: s.ExpiresAt}
}

// UserRecord is the persisted form of a provisioned user.
type UserRecord struct {
	Username    string   `json:"username"`
	Memberships []string `json:"memberships"`
	// ProviderRoles is the subset of Memberships that came from the last
	// provider token rather than configuration or an administrator.
	ProviderRoles []string  `json:"provider_roles,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

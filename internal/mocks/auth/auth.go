package auth

// Package auth contains simple hand-written test doubles for the gateway ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenService     = (*FakeTokenService)(nil)
	_ ports.IdentityResolver = (*FakeIdentityResolver)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.UserDirectory    = (*MemoryUserDirectory)(nil)
	_ ports.ProviderFailure  = (*ProviderError)(nil)
)

// ErrNotFound is returned by the doubles when an entity is not present.
var ErrNotFound error = apperrors.NotFound("not found")

// ProviderError is a canned provider HTTP failure.
type ProviderError struct {
	Status int
	Body   string
}

// NewProviderError builds a ProviderError with an OAuth2 error document body.
func NewProviderError(status int, oauthCode string) *ProviderError {
	return &ProviderError{Status: status, Body: fmt.Sprintf(`{"error":%q}`, oauthCode)}
}

func (e *ProviderError) Error() string        { return fmt.Sprintf("provider returned %d", e.Status) }
func (e *ProviderError) HTTPStatus() int      { return e.Status }
func (e *ProviderError) ResponseBody() string { return e.Body }

// FakeTokenService is a programmable TokenService that records calls.
// Unset funcs fall back to deterministic defaults.
type FakeTokenService struct {
	RequestTokenFunc  func(ctx context.Context, code, redirectURI string) (domainauth.AuthResult, error)
	ValidateTokenFunc func(ctx context.Context, token string) (domainauth.TokenValidation, error)
	RefreshTokenFunc  func(ctx context.Context, refreshToken string) (domainauth.AuthResult, error)

	AuthURL   string // default https://idp.example.com/auth
	LogoutEnd string // default https://idp.example.com/logout

	mu            sync.Mutex
	RequestCalls  []string
	RedirectURIs  []string
	ValidateCalls []string
	RefreshCalls  []string
}

func (f *FakeTokenService) RequestToken(ctx context.Context, code, redirectURI string) (domainauth.AuthResult, error) {
	f.mu.Lock()
	f.RequestCalls = append(f.RequestCalls, code)
	f.RedirectURIs = append(f.RedirectURIs, redirectURI)
	f.mu.Unlock()
	if f.RequestTokenFunc != nil {
		return f.RequestTokenFunc(ctx, code, redirectURI)
	}
	return domainauth.AuthResult{AccessToken: "at-" + code, RefreshToken: "rt-" + code}, nil
}

func (f *FakeTokenService) ValidateToken(ctx context.Context, token string) (domainauth.TokenValidation, error) {
	f.mu.Lock()
	f.ValidateCalls = append(f.ValidateCalls, token)
	f.mu.Unlock()
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(ctx, token)
	}
	return domainauth.TokenValidation{StatusCode: http.StatusOK, Token: &domainauth.AccessToken{Active: false}}, nil
}

func (f *FakeTokenService) RefreshToken(ctx context.Context, refreshToken string) (domainauth.AuthResult, error) {
	f.mu.Lock()
	f.RefreshCalls = append(f.RefreshCalls, refreshToken)
	f.mu.Unlock()
	if f.RefreshTokenFunc != nil {
		return f.RefreshTokenFunc(ctx, refreshToken)
	}
	return domainauth.AuthResult{}, NewProviderError(http.StatusBadRequest, "invalid_grant")
}

func (f *FakeTokenService) RedirectURL(callback, state string) string {
	base := f.AuthURL
	if base == "" {
		base = "https://idp.example.com/auth"
	}
	q := url.Values{}
	q.Set("redirect_uri", callback)
	q.Set("state", state)
	return base + "?" + q.Encode()
}

func (f *FakeTokenService) LogoutURL(postLogoutURI string) string {
	base := f.LogoutEnd
	if base == "" {
		base = "https://idp.example.com/logout"
	}
	return base + "?redirect_uri=" + url.QueryEscape(postLogoutURI)
}

// Calls returns copies of the recorded call arguments.
func (f *FakeTokenService) Calls() (request, validate, refresh []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.RequestCalls...),
		append([]string(nil), f.ValidateCalls...),
		append([]string(nil), f.RefreshCalls...)
}

// FakeIdentityResolver resolves users from an in-memory set and records provisioning.
type FakeIdentityResolver struct {
	// Known users resolvable by GetUser; nil means every user resolves.
	Known map[string]bool
	// GetUserErr, when set, is returned by every GetUser call.
	GetUserErr error
	// ProvisionErr, when set, is returned by every Provision call.
	ProvisionErr error

	mu          sync.Mutex
	memberships map[string][]string
	provisions  int
}

// NewFakeIdentityResolver creates a resolver that knows the given usernames.
func NewFakeIdentityResolver(usernames ...string) *FakeIdentityResolver {
	known := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		known[u] = true
	}
	return &FakeIdentityResolver{Known: known}
}

func (f *FakeIdentityResolver) GetUser(_ context.Context, username string) (domainauth.Identity, error) {
	if f.GetUserErr != nil {
		return domainauth.Identity{}, f.GetUserErr
	}
	if username == "" || (f.Known != nil && !f.Known[username]) {
		return domainauth.Identity{}, apperrors.NotFoundf("user %q not found", username)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return domainauth.Identity{Username: username, Roles: append([]string(nil), f.memberships[username]...)}, nil
}

func (f *FakeIdentityResolver) GuestUser() domainauth.Identity {
	return domainauth.GuestIdentity()
}

func (f *FakeIdentityResolver) Provision(_ context.Context, identity domainauth.Identity, roles []string) error {
	if f.ProvisionErr != nil {
		return f.ProvisionErr
	}
	if identity.IsGuest() {
		return errors.New("cannot provision guest")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memberships == nil {
		f.memberships = make(map[string][]string)
	}
	// The latest provider roles replace the previous ones.
	set := map[string]struct{}{}
	for _, r := range roles {
		set[r] = struct{}{}
	}
	merged := make([]string, 0, len(set))
	for r := range set {
		merged = append(merged, r)
	}
	sort.Strings(merged)
	f.memberships[identity.Username] = merged
	f.provisions++
	return nil
}

// Memberships returns the provisioned memberships for username.
func (f *FakeIdentityResolver) Memberships(username string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.memberships[username]...)
}

// ProvisionCount returns how many successful Provision calls were made.
func (f *FakeIdentityResolver) ProvisionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.provisions
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MemoryUserDirectory is an in-memory user directory for unit tests.
type MemoryUserDirectory struct {
	mu    sync.Mutex
	users map[string]domainauth.UserRecord
	Puts  int
}

// NewMemoryUserDirectory creates an empty directory.
func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{users: make(map[string]domainauth.UserRecord)}
}

func (m *MemoryUserDirectory) GetUser(_ context.Context, username string) (domainauth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[username]
	if !ok {
		return domainauth.UserRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryUserDirectory) PutUser(_ context.Context, rec domainauth.UserRecord) error {
	if rec.Username == "" {
		return apperrors.Validation("username cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[rec.Username] = rec
	m.Puts++
	return nil
}

func (m *MemoryUserDirectory) ListUsers(_ context.Context) ([]domainauth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domainauth.UserRecord, 0, len(m.users))
	for _, rec := range m.users {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

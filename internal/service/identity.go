package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/target/oidc-gate/internal/adapters/authroles"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/ports"
)

// IdentityServiceOptions groups dependencies for IdentityService.
type IdentityServiceOptions struct {
	Directory ports.UserDirectory
	// DefaultAuthorizations are memberships granted to every provisioned user.
	DefaultAuthorizations []string
	// AutoProvision lets GetUser resolve users the directory has not seen yet.
	AutoProvision bool
	Logger        *slog.Logger
	Now           func() time.Time
}

// IdentityService resolves provider usernames to identities and provisions their memberships.
type IdentityService struct {
	dir           ports.UserDirectory
	defaults      []string
	autoProvision bool
	logger        *slog.Logger
	now           func() time.Time
}

var _ ports.IdentityResolver = (*IdentityService)(nil)

// NewIdentityService constructs a new IdentityService.
func NewIdentityService(opts IdentityServiceOptions) *IdentityService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &IdentityService{
		dir:           opts.Directory,
		defaults:      authroles.Merge(opts.DefaultAuthorizations),
		autoProvision: opts.AutoProvision,
		logger:        logger,
		now:           now,
	}
}

// GetUser returns the identity for username with its persisted memberships.
func (s *IdentityService) GetUser(ctx context.Context, username string) (domainauth.Identity, error) {
	if username == "" {
		return domainauth.Identity{}, apperrors.Validation("username is required")
	}
	if username == domainauth.GuestUsername {
		return domainauth.Identity{}, apperrors.Validation("guest is not a resolvable user")
	}

	rec, err := s.dir.GetUser(ctx, username)
	switch {
	case err == nil:
		return domainauth.Identity{Username: rec.Username, Roles: slices.Clone(rec.Memberships)}, nil
	case apperrors.IsNotFound(err) && s.autoProvision:
		s.logger.DebugContext(ctx, "resolving unprovisioned user", "username", username)
		return domainauth.Identity{Username: username}, nil
	case apperrors.IsNotFound(err):
		return domainauth.Identity{}, apperrors.NotFoundf("user %q not found", username)
	default:
		return domainauth.Identity{}, fmt.Errorf("lookup user %q: %w", username, err)
	}
}

// GuestUser returns the anonymous identity.
func (s *IdentityService) GuestUser() domainauth.Identity {
	return domainauth.GuestIdentity()
}

// Provision records identity with its retained memberships, the configured
// defaults and exactly the supplied provider roles. Provider roles missing from
// roles are revoked; memberships granted outside the provider are kept.
// Repeating a call with the same input writes nothing.
func (s *IdentityService) Provision(ctx context.Context, identity domainauth.Identity, roles []string) error {
	if identity.IsGuest() {
		return errors.New("cannot provision the guest identity")
	}

	existing, err := s.dir.GetUser(ctx, identity.Username)
	found := err == nil
	if err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("lookup user %q: %w", identity.Username, err)
	}

	retained := slices.DeleteFunc(slices.Clone(existing.Memberships), func(m string) bool {
		return slices.Contains(existing.ProviderRoles, m)
	})
	base := authroles.Merge(retained, s.defaults)
	fromProvider := slices.DeleteFunc(authroles.Merge(roles), func(r string) bool {
		return slices.Contains(base, r)
	})
	merged := authroles.Merge(base, fromProvider)

	if found &&
		slices.Equal(merged, authroles.Merge(existing.Memberships)) &&
		slices.Equal(fromProvider, authroles.Merge(existing.ProviderRoles)) {
		return nil
	}

	now := s.now().UTC()
	rec := domainauth.UserRecord{
		Username:    identity.Username,
		Memberships:   merged,
		ProviderRoles: fromProvider,
		CreatedAt:     existing.CreatedAt,
		UpdatedAt:     now,
	}
	if !found {
		rec.CreatedAt = now
	}
	if err := s.dir.PutUser(ctx, rec); err != nil {
		return fmt.Errorf("store user %q: %w", identity.Username, err)
	}

	s.logger.InfoContext(ctx, "provisioned user",
		"username", identity.Username,
		"new", !found,
		"memberships", len(merged))
	return nil
}

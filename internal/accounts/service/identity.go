package service

import (
	"context"

	"github.com/karwaan/bazaar/internal/accounts/domain"
)

// IdentityProvider is the external identity/auth system accounts are linked
// to. The account service only ever calls it after its own persistence has
// committed; see the individual operations for how failures are handled.
type IdentityProvider interface {
	// SetRoleClaim propagates a role change to the identity's custom claims.
	SetRoleClaim(ctx context.Context, accountID string, role domain.Role) error

	// Disable blocks the identity from signing in (used on ban).
	Disable(ctx context.Context, accountID string) error

	// Enable re-allows sign-in (used on unban).
	Enable(ctx context.Context, accountID string) error

	// Delete removes the identity entirely (used on permanent delete).
	Delete(ctx context.Context, accountID string) error
}

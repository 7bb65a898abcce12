// Package identity provides implementations of the account service's
// IdentityProvider collaborator: a logging no-op for standalone deployments
// and an HTTP client for a real identity backend.
package identity

import (
	"context"
	"log/slog"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/service"
)

// Noop logs identity operations without calling any backend. Used when no
// identity service is configured (local development, tests).
type Noop struct {
	Log *slog.Logger
}

var _ service.IdentityProvider = (*Noop)(nil)

func NewNoop(log *slog.Logger) *Noop {
	if log == nil {
		log = slog.Default()
	}
	return &Noop{Log: log}
}

func (n *Noop) SetRoleClaim(ctx context.Context, accountID string, role domain.Role) error {
	n.Log.Debug("identity noop: set role claim", "account_id", accountID, "role", role)
	return nil
}

func (n *Noop) Disable(ctx context.Context, accountID string) error {
	n.Log.Debug("identity noop: disable", "account_id", accountID)
	return nil
}

func (n *Noop) Enable(ctx context.Context, accountID string) error {
	n.Log.Debug("identity noop: enable", "account_id", accountID)
	return nil
}

func (n *Noop) Delete(ctx context.Context, accountID string) error {
	n.Log.Debug("identity noop: delete", "account_id", accountID)
	return nil
}

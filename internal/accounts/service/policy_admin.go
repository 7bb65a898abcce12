package service

import (
	"context"
	"strings"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/internal/accounts/domain"
)

// Admin-only operations. Every entry point here checks requireAdmin first;
// the more specific self-protection rules come after so a non-admin never
// learns which rule they would have tripped.

// ListAccounts lists accounts with filters and pagination.
func (p *PolicyService) ListAccounts(ctx context.Context, q ListQuery, ru domain.RequestingUser) ([]domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return nil, err
	}
	return p.Accounts.List(ctx, q)
}

// SearchAccounts runs a free-text search. An empty query is a validation
// error rather than an unfiltered dump.
func (p *PolicyService) SearchAccounts(ctx context.Context, query string, role *domain.Role, status *domain.Status, ru domain.RequestingUser) ([]domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("search query is required")
	}
	return p.Accounts.Search(ctx, query, role, status)
}

// GetAccountByID looks up any account by id.
func (p *PolicyService) GetAccountByID(ctx context.Context, userID string, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	return p.Accounts.GetByID(ctx, userID)
}

// GetAccountByEmail looks up any account by email (case-insensitive).
func (p *PolicyService) GetAccountByEmail(ctx context.Context, email string, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	return p.Accounts.FindByEmail(ctx, email)
}

// UpdateAccountRole changes an account's role. Admins cannot change their
// own role; demoting the last admin by accident is not a recoverable state.
func (p *PolicyService) UpdateAccountRole(ctx context.Context, userID string, role domain.Role, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	if ru.UID == userID {
		return domain.Account{}, apperr.Authorization("admins cannot change their own role")
	}
	if !role.Valid() {
		return domain.Account{}, apperr.Validation("invalid role")
	}
	return p.Accounts.UpdateRole(ctx, userID, role)
}

// BanAccount bans the target account. Self-ban is blocked.
func (p *PolicyService) BanAccount(ctx context.Context, userID, reason string, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	if ru.UID == userID {
		return domain.Account{}, apperr.Authorization("admins cannot ban themselves")
	}
	return p.Accounts.Ban(ctx, userID, reason, ru.UID)
}

// UnbanAccount lifts a ban.
func (p *PolicyService) UnbanAccount(ctx context.Context, userID string, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	return p.Accounts.Unban(ctx, userID)
}

// SuspendAccount suspends the target account until the given time. Unlike
// ban there is no current-status guard; suspension always applies.
func (p *PolicyService) SuspendAccount(ctx context.Context, userID, reason string, until time.Time, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	return p.Accounts.Suspend(ctx, userID, reason, until)
}

// AdminUpdate is the generic admin update. An admin may update their own
// record except for the role and ban-status fields; everything else is
// allowed on any account.
func (p *PolicyService) AdminUpdate(ctx context.Context, userID string, patch domain.AccountPatch, ru domain.RequestingUser, expectedVersion *int64) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	if ru.UID == userID && selfProtectedChange(patch) {
		return domain.Account{}, apperr.Authorization("admins cannot change their own role or ban status")
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return domain.Account{}, apperr.Validation("invalid role")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Account{}, apperr.Validation("invalid status")
	}
	if err := validateProfilePatch(patch); err != nil {
		return domain.Account{}, err
	}
	return p.Accounts.Update(ctx, userID, patch, expectedVersion)
}

// CountAccounts counts accounts matching the filter.
func (p *PolicyService) CountAccounts(ctx context.Context, f CountFilter, ru domain.RequestingUser) (int64, error) {
	if err := requireAdmin(ru); err != nil {
		return 0, err
	}
	return p.Accounts.Count(ctx, f)
}

// BulkUpdate applies a batch of patches. Policy adds a rule the store layer
// does not have: no bulk item may assign the admin role. The first offending
// item rejects the entire batch before any write happens.
func (p *PolicyService) BulkUpdate(ctx context.Context, items []BulkUpdateItem, ru domain.RequestingUser) error {
	if err := requireAdmin(ru); err != nil {
		return err
	}
	for i, item := range items {
		if item.Patch.Role != nil && *item.Patch.Role == domain.RoleAdmin {
			return apperr.Validation("bulk update may not assign the admin role (item %d)", i)
		}
	}
	return p.Accounts.BulkUpdate(ctx, items)
}

// CreateAccountAdmin backfills a persisted account for an identity that
// exists in the external auth system but has no record here yet. This is a
// strict create: an existing record at the target id is a conflict, never a
// silent overwrite.
func (p *PolicyService) CreateAccountAdmin(ctx context.Context, in CreateAccountInput, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireAdmin(ru); err != nil {
		return domain.Account{}, err
	}
	if in.ID == "" {
		return domain.Account{}, apperr.Validation("account id is required")
	}
	if in.Role != nil && !in.Role.Valid() {
		return domain.Account{}, apperr.Validation("invalid role")
	}

	if _, err := p.Accounts.GetByID(ctx, in.ID); err == nil {
		return domain.Account{}, apperr.Conflict("account already exists for this id")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return domain.Account{}, err
	}

	return p.Accounts.Create(ctx, in)
}

// selfProtectedChange reports whether the patch touches the fields an admin
// may not change on their own record: role, or any transition into or out of
// the banned status.
func selfProtectedChange(patch domain.AccountPatch) bool {
	if patch.Role != nil {
		return true
	}
	return patch.Status != nil && *patch.Status == domain.StatusBanned
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/store"
	"github.com/karwaan/bazaar/pkg/idx"
	"github.com/karwaan/bazaar/pkg/slogx"
)

const (
	defaultListLimit = 50
	searchCandidates = 100
)

// AccountService owns persistence and transactional invariants for account
// records: email uniqueness, optimistic-concurrency version checks, and
// status transitions. Authorization belongs to PolicyService; nothing here
// looks at the caller.
type AccountService struct {
	Store    store.Store
	Identity IdentityProvider
}

// CreateAccountInput carries the fields accepted at account creation. ID may
// be pre-assigned by an external identity system; when empty a ULID is
// generated.
type CreateAccountInput struct {
	ID     string
	Email  string
	Name   string
	Phone  string
	Avatar string

	Role              *domain.Role
	PreferredCurrency *domain.Currency
	Preferences       *domain.PreferencesPatch
}

// ListQuery is the List filter set. Search is applied in memory after the
// SQL-side pagination; see List for the ordering contract.
type ListQuery struct {
	Role          *domain.Role
	Status        *domain.Status
	EmailVerified *bool
	StartDate     *time.Time
	EndDate       *time.Time
	Search        string
	Limit         int
	Offset        int
}

// CountFilter is ListQuery without search and pagination.
type CountFilter struct {
	Role          *domain.Role
	Status        *domain.Status
	EmailVerified *bool
	StartDate     *time.Time
	EndDate       *time.Time
}

// BulkUpdateItem is one entry of a BulkUpdate batch.
type BulkUpdateItem struct {
	ID    string
	Patch domain.AccountPatch
}

// Create inserts a new account. Email uniqueness (case-insensitive) is
// checked inside the same transaction as the insert, so two concurrent
// creates with the same email cannot both succeed.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (domain.Account, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return domain.Account{}, apperr.Validation("email is required")
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:                in.ID,
		Email:             email,
		Name:              strings.TrimSpace(in.Name),
		Phone:             strings.TrimSpace(in.Phone),
		Avatar:            strings.TrimSpace(in.Avatar),
		Role:              domain.DefaultRole,
		Status:            domain.DefaultStatus,
		PreferredCurrency: domain.DefaultCurrency,
		Preferences:       domain.DefaultPreferences(),
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if acct.ID == "" {
		acct.ID = idx.New().String()
	}
	if in.Role != nil {
		acct.Role = *in.Role
	}
	if in.PreferredCurrency != nil {
		acct.PreferredCurrency = *in.PreferredCurrency
	}
	if in.Preferences != nil {
		acct.Preferences = in.Preferences.Apply(acct.Preferences)
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Accounts().GetByEmail(ctx, email)
		switch {
		case err == nil:
			return apperr.Conflict("account with this email already exists")
		case !errors.Is(err, store.ErrNotFound):
			return apperr.Internal("failed to check email uniqueness", err)
		}

		if err := tx.Accounts().Insert(ctx, acct); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return apperr.Conflict("account with this email already exists")
			}
			return apperr.Internal("failed to create account", err)
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, wrap(err, "failed to create account")
	}
	return acct, nil
}

// GetByID returns the account or a not-found error.
func (s *AccountService) GetByID(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, apperr.NotFound("account not found")
		}
		return domain.Account{}, apperr.Internal("failed to load account", err)
	}
	return acct, nil
}

// FindByEmail is a case-insensitive single-record lookup.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, apperr.NotFound("account not found")
		}
		return domain.Account{}, apperr.Internal("failed to load account", err)
	}
	return acct, nil
}

// FindByPhone is an exact-match lookup.
func (s *AccountService) FindByPhone(ctx context.Context, phone string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, apperr.NotFound("account not found")
		}
		return domain.Account{}, apperr.Internal("failed to load account", err)
	}
	return acct, nil
}

// List returns accounts sorted by creation time descending. Pagination is
// applied at the persistence layer BEFORE the free-text search narrows the
// page, so a page with a search term may contain fewer than Limit records.
// This matches the long-standing listing contract; callers page by offset,
// not by result count.
func (s *AccountService) List(ctx context.Context, q ListQuery) ([]domain.Account, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	page, err := s.Store.Accounts().List(ctx, store.ListFilter{
		Role:          q.Role,
		Status:        q.Status,
		EmailVerified: q.EmailVerified,
		CreatedAfter:  q.StartDate,
		CreatedBefore: q.EndDate,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, apperr.Internal("failed to list accounts", err)
	}

	if q.Search == "" {
		return page, nil
	}
	return filterBySearch(page, q.Search), nil
}

// Search applies role/status filters, retrieves up to 100 candidates and
// filters them in memory by name/email (case-insensitive) or phone substring.
func (s *AccountService) Search(ctx context.Context, query string, role *domain.Role, status *domain.Status) ([]domain.Account, error) {
	candidates, err := s.Store.Accounts().List(ctx, store.ListFilter{
		Role:   role,
		Status: status,
		Limit:  searchCandidates,
	})
	if err != nil {
		return nil, apperr.Internal("failed to search accounts", err)
	}
	return filterBySearch(candidates, query), nil
}

// Update merges a patch onto the account inside a transaction. When
// expectedVersion is non-nil a mismatch with the stored version fails with a
// conflict and leaves the record untouched. An email change re-checks
// uniqueness against every other record.
func (s *AccountService) Update(ctx context.Context, id string, patch domain.AccountPatch, expectedVersion *int64) (domain.Account, error) {
	return s.mutate(ctx, id, func(tx store.Tx, cur domain.Account) (domain.Account, error) {
		if expectedVersion != nil && cur.Version != *expectedVersion {
			return domain.Account{}, apperr.Conflict(
				"expected version %d, got %d", *expectedVersion, cur.Version)
		}

		if patch.Email != nil {
			newEmail := domain.NormalizeEmail(*patch.Email)
			if newEmail != cur.Email {
				other, err := tx.Accounts().GetByEmail(ctx, newEmail)
				switch {
				case err == nil && other.ID != cur.ID:
					return domain.Account{}, apperr.Conflict("email is already in use")
				case err != nil && !errors.Is(err, store.ErrNotFound):
					return domain.Account{}, apperr.Internal("failed to check email uniqueness", err)
				}
			}
		}

		return patch.Apply(cur), nil
	})
}

// UpdateRole changes the account role and propagates it to the external
// identity provider's custom claims. The persisted change is NOT rolled back
// when claim propagation fails; the overall operation surfaces an internal
// error and the inconsistency is resolved by the next successful sync.
func (s *AccountService) UpdateRole(ctx context.Context, id string, role domain.Role) (domain.Account, error) {
	acct, err := s.Update(ctx, id, domain.AccountPatch{Role: &role}, nil)
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.Identity.SetRoleClaim(ctx, id, role); err != nil {
		return domain.Account{}, apperr.Internal("account role updated but identity claim sync failed", err)
	}
	return acct, nil
}

// Ban marks the account banned, records the audit trail and bumps the
// version. Banning an already-banned account is a conflict. After the
// transaction commits the external identity is disabled best-effort; a
// failure there is logged, not propagated, and does not undo the ban.
func (s *AccountService) Ban(ctx context.Context, id, reason, bannedBy string) (domain.Account, error) {
	now := time.Now().UTC()
	acct, err := s.mutate(ctx, id, func(_ store.Tx, cur domain.Account) (domain.Account, error) {
		if cur.Status == domain.StatusBanned {
			return domain.Account{}, apperr.Conflict("account is already banned")
		}
		cur.Status = domain.StatusBanned
		cur.StatusAudit.BannedAt = &now
		cur.StatusAudit.BannedBy = bannedBy
		cur.StatusAudit.BanReason = reason
		return cur, nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.Identity.Disable(ctx, id); err != nil {
		slogx.FromContext(ctx).Error("failed to disable identity after ban",
			"account_id", id, "error", err)
	}
	return acct, nil
}

// Unban lifts a ban, clears the audit trail and re-enables the external
// identity (best-effort). Unbanning an account that is not banned is a
// conflict.
func (s *AccountService) Unban(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.mutate(ctx, id, func(_ store.Tx, cur domain.Account) (domain.Account, error) {
		if cur.Status != domain.StatusBanned {
			return domain.Account{}, apperr.Conflict("account is not banned")
		}
		cur.Status = domain.StatusActive
		return cur, nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.Identity.Enable(ctx, id); err != nil {
		slogx.FromContext(ctx).Error("failed to enable identity after unban",
			"account_id", id, "error", err)
	}
	return acct, nil
}

// Suspend puts the account into the suspended state regardless of its
// current status. It is deliberately weaker than Ban (no conflict guard) and
// must only be reached through trusted admin workflows.
func (s *AccountService) Suspend(ctx context.Context, id, reason string, until time.Time) (domain.Account, error) {
	now := time.Now().UTC()
	return s.mutate(ctx, id, func(_ store.Tx, cur domain.Account) (domain.Account, error) {
		cur.Status = domain.StatusSuspended
		cur.StatusAudit.SuspendedAt = &now
		cur.StatusAudit.SuspendedUntil = &until
		cur.StatusAudit.SuspensionReason = reason
		return cur, nil
	})
}

// SoftDelete marks the account inactive. The record stays queryable.
func (s *AccountService) SoftDelete(ctx context.Context, id string) (domain.Account, error) {
	inactive := domain.StatusInactive
	return s.Update(ctx, id, domain.AccountPatch{Status: &inactive}, nil)
}

// PermanentDelete removes the record and best-effort deletes the linked
// external identity. Identity removal failures are logged only.
func (s *AccountService) PermanentDelete(ctx context.Context, id string) error {
	err := s.Store.Accounts().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("account not found")
		}
		return apperr.Internal("failed to delete account", err)
	}

	if err := s.Identity.Delete(ctx, id); err != nil {
		slogx.FromContext(ctx).Error("failed to delete identity after permanent delete",
			"account_id", id, "error", err)
	}
	return nil
}

// UpdateLastLogin records a login best-effort: a missing account is a silent
// no-op and every failure is swallowed after logging. Login tracking must
// never block a login flow, so this is the one operation with no error
// return.
func (s *AccountService) UpdateLastLogin(ctx context.Context, id, ipAddress string) {
	log := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("failed to load account for login tracking", "account_id", id, "error", err)
		}
		return
	}

	now := time.Now().UTC()
	acct.Login.LastLoginAt = &now
	acct.Login.LastLoginIP = ipAddress
	acct.Login.LoginCount++
	acct.Version++
	acct.UpdatedAt = now

	if err := s.Store.Accounts().Update(ctx, acct); err != nil {
		log.Warn("failed to record login", "account_id", id, "error", err)
	}
}

// Count returns the number of accounts matching the filter.
func (s *AccountService) Count(ctx context.Context, f CountFilter) (int64, error) {
	count, err := s.Store.Accounts().Count(ctx, store.ListFilter{
		Role:          f.Role,
		Status:        f.Status,
		EmailVerified: f.EmailVerified,
		CreatedAfter:  f.StartDate,
		CreatedBefore: f.EndDate,
	})
	if err != nil {
		return 0, apperr.Internal("failed to count accounts", err)
	}
	return count, nil
}

// BulkUpdate applies a batch of patches in one transaction, all stamped with
// the same updated_at. Unlike Update there are no per-item version or email
// uniqueness checks; this is a weaker consistency tier reserved for
// pre-validated admin workflows (see PolicyService.BulkUpdate). A missing
// record fails the whole batch; nothing is partially applied.
func (s *AccountService) BulkUpdate(ctx context.Context, items []BulkUpdateItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, item := range items {
			cur, err := tx.Accounts().GetByID(ctx, item.ID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return apperr.NotFound("account %s not found", item.ID)
				}
				return apperr.Internal("failed to load account for bulk update", err)
			}

			next := item.Patch.Apply(cur)
			next.Version = cur.Version + 1
			next.UpdatedAt = now
			normalizeStatusAudit(&next)

			if err := tx.Accounts().Update(ctx, next); err != nil {
				return apperr.Internal("failed to apply bulk update", err)
			}
		}
		return nil
	})
	return wrap(err, "bulk update failed")
}

// mutate is the shared transactional read-check-write primitive: load the
// record in a transaction, run the decision function, then stamp version+1
// and updated_at, normalize status audit fields and write. All single-record
// mutations except UpdateLastLogin funnel through here, which is what makes
// concurrent writers serialize on the version counter.
func (s *AccountService) mutate(ctx context.Context, id string, decide func(tx store.Tx, cur domain.Account) (domain.Account, error)) (domain.Account, error) {
	var out domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		cur, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("account not found")
			}
			return apperr.Internal("failed to load account", err)
		}

		next, err := decide(tx, cur)
		if err != nil {
			return err
		}

		// The decision function may not change identity or history.
		next.ID = cur.ID
		next.CreatedAt = cur.CreatedAt
		next.Version = cur.Version + 1
		next.UpdatedAt = time.Now().UTC()
		normalizeStatusAudit(&next)

		if err := tx.Accounts().Update(ctx, next); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return apperr.Conflict("email is already in use")
			}
			return apperr.Internal("failed to update account", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return domain.Account{}, wrap(err, "failed to update account")
	}
	return out, nil
}

// normalizeStatusAudit enforces the invariant that audit fields are only
// populated while the record is in the corresponding status.
func normalizeStatusAudit(a *domain.Account) {
	if a.Status != domain.StatusBanned {
		a.StatusAudit.BannedAt = nil
		a.StatusAudit.BannedBy = ""
		a.StatusAudit.BanReason = ""
	}
	if a.Status != domain.StatusSuspended {
		a.StatusAudit.SuspendedAt = nil
		a.StatusAudit.SuspendedUntil = nil
		a.StatusAudit.SuspensionReason = ""
	}
}

func filterBySearch(accounts []domain.Account, query string) []domain.Account {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return accounts
	}

	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Email), q) ||
			(a.Phone != "" && strings.Contains(a.Phone, strings.TrimSpace(query))) {
			out = append(out, a)
		}
	}
	return out
}

// wrap passes typed application errors through unchanged and wraps anything
// else as an internal error.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(msg, err)
}

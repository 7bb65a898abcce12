package service

import (
	"context"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/internal/accounts/domain"
)

// PolicyService enforces authorization and business rules before delegating
// to AccountService. It never touches the store directly.
//
// Two authorization patterns cover every operation: "self-or-admin" (the
// caller is an admin or is acting on their own record) and "admin-only".
type PolicyService struct {
	Accounts     *AccountService
	Verification *VerificationService
}

// AccountSettings is the settings view of an account.
type AccountSettings struct {
	Preferences       domain.Preferences
	PreferredCurrency domain.Currency
	EmailVerified     bool
	PhoneVerified     bool
}

// SettingsPatch updates account settings. Preferences merge onto the
// existing set; PreferredCurrency is independent.
type SettingsPatch struct {
	Preferences       *domain.PreferencesPatch
	PreferredCurrency *domain.Currency
}

// GetProfile returns the target account under the self-or-admin rule.
func (p *PolicyService) GetProfile(ctx context.Context, userID string, ru domain.RequestingUser) (domain.Account, error) {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return domain.Account{}, err
	}
	return p.Accounts.GetByID(ctx, userID)
}

// UpdateProfile updates profile fields under the self-or-admin rule. A
// non-admin caller may not set role or status, not even on their own record.
func (p *PolicyService) UpdateProfile(ctx context.Context, userID string, patch domain.AccountPatch, ru domain.RequestingUser, expectedVersion *int64) (domain.Account, error) {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return domain.Account{}, err
	}
	if !ru.IsAdmin() && (patch.Role != nil || patch.Status != nil) {
		return domain.Account{}, apperr.Authorization("only admins may change role or status")
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return domain.Account{}, apperr.Validation("invalid role")
	}
	if err := validateProfilePatch(patch); err != nil {
		return domain.Account{}, err
	}
	return p.Accounts.Update(ctx, userID, patch, expectedVersion)
}

// GetAccountSettings returns the settings view under the self-or-admin rule.
func (p *PolicyService) GetAccountSettings(ctx context.Context, userID string, ru domain.RequestingUser) (AccountSettings, error) {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return AccountSettings{}, err
	}

	acct, err := p.Accounts.GetByID(ctx, userID)
	if err != nil {
		return AccountSettings{}, err
	}
	return AccountSettings{
		Preferences:       acct.Preferences,
		PreferredCurrency: acct.PreferredCurrency,
		EmailVerified:     acct.EmailVerified,
		PhoneVerified:     acct.PhoneVerified,
	}, nil
}

// UpdateAccountSettings merges a settings patch onto the account.
// Preferences are merged field by field, never replaced wholesale.
func (p *PolicyService) UpdateAccountSettings(ctx context.Context, userID string, patch SettingsPatch, ru domain.RequestingUser) (AccountSettings, error) {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return AccountSettings{}, err
	}
	if patch.PreferredCurrency != nil && !patch.PreferredCurrency.Valid() {
		return AccountSettings{}, apperr.Validation("preferred currency must be one of INR, USD, EUR, GBP, AUD, CAD")
	}

	acct, err := p.Accounts.Update(ctx, userID, domain.AccountPatch{
		Preferences:       patch.Preferences,
		PreferredCurrency: patch.PreferredCurrency,
	}, nil)
	if err != nil {
		return AccountSettings{}, err
	}
	return AccountSettings{
		Preferences:       acct.Preferences,
		PreferredCurrency: acct.PreferredCurrency,
		EmailVerified:     acct.EmailVerified,
		PhoneVerified:     acct.PhoneVerified,
	}, nil
}

// GetPreferences returns the account's preferences under the self-or-admin rule.
func (p *PolicyService) GetPreferences(ctx context.Context, userID string, ru domain.RequestingUser) (domain.Preferences, error) {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return domain.Preferences{}, err
	}

	acct, err := p.Accounts.GetByID(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	return acct.Preferences, nil
}

// UpdatePreferences merges a preferences patch onto the existing set.
func (p *PolicyService) UpdatePreferences(ctx context.Context, userID string, patch domain.PreferencesPatch, ru domain.RequestingUser) (domain.Preferences, error) {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return domain.Preferences{}, err
	}

	acct, err := p.Accounts.Update(ctx, userID, domain.AccountPatch{Preferences: &patch}, nil)
	if err != nil {
		return domain.Preferences{}, err
	}
	return acct.Preferences, nil
}

// DeleteAccount soft-deletes the target account. Self-or-admin, with one
// carve-out: an admin may not delete their own account while acting as
// admin, even though the self-or-admin rule would otherwise allow it.
func (p *PolicyService) DeleteAccount(ctx context.Context, userID string, ru domain.RequestingUser) error {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return err
	}
	if ru.IsAdmin() && ru.UID == userID {
		return apperr.Conflict("Admins cannot delete their own account")
	}

	_, err := p.Accounts.SoftDelete(ctx, userID)
	return err
}

// RequestVerificationCode issues a verification code for the given channel
// under the self-or-admin rule.
func (p *PolicyService) RequestVerificationCode(ctx context.Context, userID string, channel VerificationChannel, ru domain.RequestingUser) (string, error) {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return "", err
	}
	return p.Verification.RequestCode(ctx, userID, channel)
}

// ConfirmVerificationCode validates a code and flips the corresponding
// verified flag.
func (p *PolicyService) ConfirmVerificationCode(ctx context.Context, userID string, channel VerificationChannel, code string, ru domain.RequestingUser) error {
	if err := requireSelfOrAdmin(ru, userID); err != nil {
		return err
	}
	return p.Verification.ConfirmCode(ctx, userID, channel, code)
}

// UpdateLastLogin records a login. System use only: callers are trusted
// internal components running after a verified login, so there is no
// authorization check and no error return.
func (p *PolicyService) UpdateLastLogin(ctx context.Context, userID, ipAddress string) {
	p.Accounts.UpdateLastLogin(ctx, userID, ipAddress)
}

func requireAuthenticated(ru domain.RequestingUser) error {
	if ru.UID == "" {
		return apperr.Authorization("Authentication required")
	}
	return nil
}

func requireSelfOrAdmin(ru domain.RequestingUser, targetID string) error {
	if err := requireAuthenticated(ru); err != nil {
		return err
	}
	if !ru.CanActOn(targetID) {
		return apperr.Authorization("you do not have permission to access this account")
	}
	return nil
}

func requireAdmin(ru domain.RequestingUser) error {
	if err := requireAuthenticated(ru); err != nil {
		return err
	}
	if !ru.IsAdmin() {
		return apperr.Authorization("admin access required")
	}
	return nil
}

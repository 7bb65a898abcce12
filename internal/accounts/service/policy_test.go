package service

import (
	"context"
	"testing"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/stretchr/testify/require"
)

func newTestPolicy(t *testing.T) (*PolicyService, *AccountService) {
	t.Helper()
	accounts, _ := newTestService(t)
	return &PolicyService{Accounts: accounts}, accounts
}

func asAdmin(id string) domain.RequestingUser {
	return domain.RequestingUser{UID: id, Role: domain.RoleAdmin}
}

func asUser(id string) domain.RequestingUser {
	return domain.RequestingUser{UID: id, Role: domain.RoleUser}
}

func TestPolicyAuthorizationMatrix(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)

	owner := mustCreate(t, accounts, "owner@example.com")
	other := mustCreate(t, accounts, "other@example.com")

	t.Run("unauthenticated is rejected first", func(t *testing.T) {
		_, err := policy.GetProfile(ctx, owner.ID, domain.RequestingUser{})
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		require.Equal(t, "Authentication required", apperr.MessageOf(err))
	})

	t.Run("user reads own profile", func(t *testing.T) {
		acct, err := policy.GetProfile(ctx, owner.ID, asUser(owner.ID))
		require.NoError(t, err)
		require.Equal(t, owner.ID, acct.ID)
	})

	t.Run("user cannot read another profile", func(t *testing.T) {
		_, err := policy.GetProfile(ctx, other.ID, asUser(owner.ID))
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		require.Equal(t, "you do not have permission to access this account", apperr.MessageOf(err))
	})

	t.Run("admin reads any profile", func(t *testing.T) {
		acct, err := policy.GetProfile(ctx, other.ID, asAdmin("admin-1"))
		require.NoError(t, err)
		require.Equal(t, other.ID, acct.ID)
	})

	t.Run("admin-only endpoints reject non-admins", func(t *testing.T) {
		_, err := policy.ListAccounts(ctx, ListQuery{}, asUser(owner.ID))
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		require.Equal(t, "admin access required", apperr.MessageOf(err))
	})
}

func TestUpdateProfilePolicy(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)
	acct := mustCreate(t, accounts, "profile@example.com")

	t.Run("non-admin cannot touch role or status", func(t *testing.T) {
		seller := domain.RoleSeller
		_, err := policy.UpdateProfile(ctx, acct.ID, domain.AccountPatch{Role: &seller}, asUser(acct.ID), nil)
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		require.Equal(t, "only admins may change role or status", apperr.MessageOf(err))

		inactive := domain.StatusInactive
		_, err = policy.UpdateProfile(ctx, acct.ID, domain.AccountPatch{Status: &inactive}, asUser(acct.ID), nil)
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})

	t.Run("validation runs before the write", func(t *testing.T) {
		short := "x"
		_, err := policy.UpdateProfile(ctx, acct.ID, domain.AccountPatch{Name: &short}, asUser(acct.ID), nil)
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
		require.Equal(t, "name must be at least 2 characters", apperr.MessageOf(err))
	})

	t.Run("expected version is honoured", func(t *testing.T) {
		name := "Profile Owner"
		stale := acct.Version + 10
		_, err := policy.UpdateProfile(ctx, acct.ID, domain.AccountPatch{Name: &name}, asUser(acct.ID), &stale)
		require.True(t, apperr.IsKind(err, apperr.KindConflict))

		updated, err := policy.UpdateProfile(ctx, acct.ID, domain.AccountPatch{Name: &name}, asUser(acct.ID), &acct.Version)
		require.NoError(t, err)
		require.Equal(t, "Profile Owner", updated.Name)
	})
}

func TestDeleteAccountPolicy(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)

	user := mustCreate(t, accounts, "self-delete@example.com")
	admin := mustCreate(t, accounts, "admin@example.com")

	t.Run("user soft-deletes own account", func(t *testing.T) {
		require.NoError(t, policy.DeleteAccount(ctx, user.ID, asUser(user.ID)))

		cur, err := accounts.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, domain.StatusInactive, cur.Status)
	})

	t.Run("admin cannot delete own account", func(t *testing.T) {
		err := policy.DeleteAccount(ctx, admin.ID, asAdmin(admin.ID))
		require.True(t, apperr.IsKind(err, apperr.KindConflict))
		require.Equal(t, "Admins cannot delete their own account", apperr.MessageOf(err))
	})

	t.Run("admin deletes other accounts", func(t *testing.T) {
		require.NoError(t, policy.DeleteAccount(ctx, user.ID, asAdmin(admin.ID)))
	})
}

func TestAdminSelfProtections(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)

	admin := mustCreate(t, accounts, "boss@example.com")
	target := mustCreate(t, accounts, "target@example.com")
	ru := asAdmin(admin.ID)

	t.Run("cannot change own role", func(t *testing.T) {
		_, err := policy.UpdateAccountRole(ctx, admin.ID, domain.RoleUser, ru)
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		require.Equal(t, "admins cannot change their own role", apperr.MessageOf(err))
	})

	t.Run("cannot ban self", func(t *testing.T) {
		_, err := policy.BanAccount(ctx, admin.ID, "oops", ru)
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		require.Equal(t, "admins cannot ban themselves", apperr.MessageOf(err))
	})

	t.Run("generic update blocks own role and ban status only", func(t *testing.T) {
		seller := domain.RoleSeller
		_, err := policy.AdminUpdate(ctx, admin.ID, domain.AccountPatch{Role: &seller}, ru, nil)
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
		require.Equal(t, "admins cannot change their own role or ban status", apperr.MessageOf(err))

		banned := domain.StatusBanned
		_, err = policy.AdminUpdate(ctx, admin.ID, domain.AccountPatch{Status: &banned}, ru, nil)
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))

		// Other fields on the own record are fine, including non-ban statuses.
		name := "The Boss"
		suspended := domain.StatusSuspended
		_, err = policy.AdminUpdate(ctx, admin.ID, domain.AccountPatch{Name: &name, Status: &suspended}, ru, nil)
		require.NoError(t, err)
	})

	t.Run("no guard on other accounts", func(t *testing.T) {
		updated, err := policy.UpdateAccountRole(ctx, target.ID, domain.RoleSeller, ru)
		require.NoError(t, err)
		require.Equal(t, domain.RoleSeller, updated.Role)

		banned, err := policy.BanAccount(ctx, target.ID, "spam", ru)
		require.NoError(t, err)
		require.Equal(t, domain.StatusBanned, banned.Status)

		_, err = policy.UnbanAccount(ctx, target.ID, ru)
		require.NoError(t, err)
	})

	t.Run("invalid role is a validation error", func(t *testing.T) {
		_, err := policy.UpdateAccountRole(ctx, target.ID, domain.Role("superuser"), ru)
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
		require.Equal(t, "invalid role", apperr.MessageOf(err))
	})
}

func TestSearchAccountsPolicy(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)
	mustCreate(t, accounts, "searchable@example.com")
	ru := asAdmin("admin-1")

	t.Run("empty query is rejected", func(t *testing.T) {
		_, err := policy.SearchAccounts(ctx, "   ", nil, nil, ru)
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
		require.Equal(t, "search query is required", apperr.MessageOf(err))
	})

	t.Run("finds matches", func(t *testing.T) {
		found, err := policy.SearchAccounts(ctx, "searchable", nil, nil, ru)
		require.NoError(t, err)
		require.Len(t, found, 1)
	})
}

func TestBulkUpdatePolicy(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)

	a := mustCreate(t, accounts, "bulk-1@example.com")
	b := mustCreate(t, accounts, "bulk-2@example.com")
	ru := asAdmin("admin-1")

	t.Run("rejects admin role assignment before any write", func(t *testing.T) {
		name := "Changed"
		adminRole := domain.RoleAdmin
		err := policy.BulkUpdate(ctx, []BulkUpdateItem{
			{ID: a.ID, Patch: domain.AccountPatch{Name: &name}},
			{ID: b.ID, Patch: domain.AccountPatch{Role: &adminRole}},
		}, ru)
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
		require.Equal(t, "bulk update may not assign the admin role (item 1)", apperr.MessageOf(err))

		cur, err := accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.NotEqual(t, "Changed", cur.Name, "first item must not be applied")
	})

	t.Run("non-admin roles pass through", func(t *testing.T) {
		seller := domain.RoleSeller
		err := policy.BulkUpdate(ctx, []BulkUpdateItem{
			{ID: a.ID, Patch: domain.AccountPatch{Role: &seller}},
		}, ru)
		require.NoError(t, err)
	})
}

func TestCreateAccountAdmin(t *testing.T) {
	ctx := context.Background()
	policy, _ := newTestPolicy(t)
	ru := asAdmin("admin-1")

	t.Run("requires an id", func(t *testing.T) {
		_, err := policy.CreateAccountAdmin(ctx, CreateAccountInput{Email: "no-id@example.com"}, ru)
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
		require.Equal(t, "account id is required", apperr.MessageOf(err))
	})

	t.Run("backfills a record at the given id", func(t *testing.T) {
		acct, err := policy.CreateAccountAdmin(ctx, CreateAccountInput{
			ID:    "ext-77",
			Email: "backfill@example.com",
		}, ru)
		require.NoError(t, err)
		require.Equal(t, "ext-77", acct.ID)
	})

	t.Run("existing id is a conflict, never a merge", func(t *testing.T) {
		_, err := policy.CreateAccountAdmin(ctx, CreateAccountInput{
			ID:    "ext-77",
			Email: "second@example.com",
		}, ru)
		require.True(t, apperr.IsKind(err, apperr.KindConflict))
		require.Equal(t, "account already exists for this id", apperr.MessageOf(err))
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := policy.CreateAccountAdmin(ctx, CreateAccountInput{ID: "x"}, asUser("u-1"))
		require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
	})
}

func TestSettingsAndPreferences(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)
	acct := mustCreate(t, accounts, "prefs@example.com")
	ru := asUser(acct.ID)

	t.Run("preferences merge field by field", func(t *testing.T) {
		hindi := "hi"
		prefs, err := policy.UpdatePreferences(ctx, acct.ID, domain.PreferencesPatch{Language: &hindi}, ru)
		require.NoError(t, err)

		require.Equal(t, "hi", prefs.Language)
		require.True(t, prefs.Newsletter, "untouched defaults survive the merge")
		require.Equal(t, "Asia/Kolkata", prefs.Timezone)
	})

	t.Run("settings view reflects the account", func(t *testing.T) {
		settings, err := policy.GetAccountSettings(ctx, acct.ID, ru)
		require.NoError(t, err)
		require.Equal(t, domain.CurrencyINR, settings.PreferredCurrency)
		require.Equal(t, "hi", settings.Preferences.Language)
	})

	t.Run("currency change via settings", func(t *testing.T) {
		aud := domain.CurrencyAUD
		settings, err := policy.UpdateAccountSettings(ctx, acct.ID, SettingsPatch{PreferredCurrency: &aud}, ru)
		require.NoError(t, err)
		require.Equal(t, domain.CurrencyAUD, settings.PreferredCurrency)
	})

	t.Run("invalid currency rejected", func(t *testing.T) {
		bad := domain.Currency("JPY")
		_, err := policy.UpdateAccountSettings(ctx, acct.ID, SettingsPatch{PreferredCurrency: &bad}, ru)
		require.True(t, apperr.IsKind(err, apperr.KindValidation))
		require.Equal(t, "preferred currency must be one of INR, USD, EUR, GBP, AUD, CAD", apperr.MessageOf(err))
	})
}

func TestSuspendAccountPolicy(t *testing.T) {
	ctx := context.Background()
	policy, accounts := newTestPolicy(t)
	acct := mustCreate(t, accounts, "suspend-policy@example.com")

	until := time.Now().Add(48 * time.Hour)

	_, err := policy.SuspendAccount(ctx, acct.ID, "chargeback review", until, asUser("u-1"))
	require.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	suspended, err := policy.SuspendAccount(ctx, acct.ID, "chargeback review", until, asAdmin("admin-1"))
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, suspended.Status)
}

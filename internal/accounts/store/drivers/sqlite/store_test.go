package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/store"
	"github.com/karwaan/bazaar/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedAccount(email string, role domain.Role, createdAt time.Time) domain.Account {
	return domain.Account{
		ID:                idx.New().String(),
		Email:             email,
		Name:              "Seed",
		Role:              role,
		Status:            domain.StatusActive,
		PreferredCurrency: domain.CurrencyINR,
		Preferences:       domain.DefaultPreferences(),
		Version:           1,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
}

func TestAccountsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Now().UTC()
	bannedAt := now.Add(-time.Hour)
	lastLogin := now.Add(-time.Minute)

	acct := seedAccount("round@example.com", domain.RoleSeller, now)
	acct.Phone = "9876543210"
	acct.Status = domain.StatusBanned
	acct.EmailVerified = true
	acct.StatusAudit.BannedAt = &bannedAt
	acct.StatusAudit.BannedBy = "admin-1"
	acct.StatusAudit.BanReason = "test"
	acct.Login.LastLoginAt = &lastLogin
	acct.Login.LastLoginIP = "203.0.113.1"
	acct.Login.LoginCount = 7

	require.NoError(t, st.Accounts().Insert(ctx, acct))

	got, err := st.Accounts().GetByID(ctx, acct.ID)
	require.NoError(t, err)

	require.Equal(t, acct.Email, got.Email)
	require.Equal(t, domain.RoleSeller, got.Role)
	require.Equal(t, domain.StatusBanned, got.Status)
	require.True(t, got.EmailVerified)
	require.Equal(t, acct.Preferences, got.Preferences)
	require.NotNil(t, got.StatusAudit.BannedAt)
	require.True(t, bannedAt.Equal(*got.StatusAudit.BannedAt))
	require.Nil(t, got.StatusAudit.SuspendedAt)
	require.NotNil(t, got.Login.LastLoginAt)
	require.EqualValues(t, 7, got.Login.LoginCount)
	require.True(t, now.Equal(got.CreatedAt))
}

func TestAccountsUniqueEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, st.Accounts().Insert(ctx, seedAccount("dup@example.com", domain.RoleUser, now)))

	err := st.Accounts().Insert(ctx, seedAccount("dup@example.com", domain.RoleUser, now))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAccountsListFilters(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, spec := range []struct {
		email string
		role  domain.Role
	}{
		{"u1@example.com", domain.RoleUser},
		{"u2@example.com", domain.RoleSeller},
		{"u3@example.com", domain.RoleUser},
	} {
		acct := seedAccount(spec.email, spec.role, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, st.Accounts().Insert(ctx, acct))
	}

	t.Run("ordered newest first", func(t *testing.T) {
		all, err := st.Accounts().List(ctx, store.ListFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "u3@example.com", all[0].Email)
		require.Equal(t, "u1@example.com", all[2].Email)
	})

	t.Run("role filter", func(t *testing.T) {
		seller := domain.RoleSeller
		sellers, err := st.Accounts().List(ctx, store.ListFilter{Role: &seller, Limit: 10})
		require.NoError(t, err)
		require.Len(t, sellers, 1)
		require.Equal(t, "u2@example.com", sellers[0].Email)
	})

	t.Run("created window", func(t *testing.T) {
		after := base.Add(30 * time.Second)
		windowed, err := st.Accounts().List(ctx, store.ListFilter{CreatedAfter: &after, Limit: 10})
		require.NoError(t, err)
		require.Len(t, windowed, 2)
	})

	t.Run("limit and offset", func(t *testing.T) {
		page, err := st.Accounts().List(ctx, store.ListFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page, 1)
		require.Equal(t, "u1@example.com", page[0].Email)
	})

	t.Run("count matches filters", func(t *testing.T) {
		user := domain.RoleUser
		count, err := st.Accounts().Count(ctx, store.ListFilter{Role: &user})
		require.NoError(t, err)
		require.EqualValues(t, 2, count)
	})
}

func TestTxRollbackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Now().UTC()
	acct := seedAccount("tx@example.com", domain.RoleUser, now)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().Insert(ctx, acct); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.Accounts().GetByID(ctx, acct.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerificationSecrets(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Now().UTC()
	acct := seedAccount("secrets@example.com", domain.RoleUser, now)
	require.NoError(t, st.Accounts().Insert(ctx, acct))

	t.Run("missing secret", func(t *testing.T) {
		_, err := st.VerificationSecrets().Get(ctx, acct.ID, "email")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, st.VerificationSecrets().Put(ctx, acct.ID, "email", []byte("ciphertext-1")))

		secret, err := st.VerificationSecrets().Get(ctx, acct.ID, "email")
		require.NoError(t, err)
		require.Equal(t, []byte("ciphertext-1"), secret)
	})

	t.Run("put upserts", func(t *testing.T) {
		require.NoError(t, st.VerificationSecrets().Put(ctx, acct.ID, "email", []byte("ciphertext-2")))

		secret, err := st.VerificationSecrets().Get(ctx, acct.ID, "email")
		require.NoError(t, err)
		require.Equal(t, []byte("ciphertext-2"), secret)
	})

	t.Run("channels are separate rows", func(t *testing.T) {
		require.NoError(t, st.VerificationSecrets().Put(ctx, acct.ID, "phone", []byte("phone-secret")))

		secret, err := st.VerificationSecrets().Get(ctx, acct.ID, "email")
		require.NoError(t, err)
		require.Equal(t, []byte("ciphertext-2"), secret)
	})

	t.Run("delete retires the secret", func(t *testing.T) {
		require.NoError(t, st.VerificationSecrets().Delete(ctx, acct.ID, "email"))
		require.ErrorIs(t, st.VerificationSecrets().Delete(ctx, acct.ID, "email"), store.ErrNotFound)
	})

	t.Run("secrets cascade with the account", func(t *testing.T) {
		require.NoError(t, st.Accounts().Delete(ctx, acct.ID))
		_, err := st.VerificationSecrets().Get(ctx, acct.ID, "phone")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

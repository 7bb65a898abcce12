package service

import (
	"testing"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateProfilePatch(t *testing.T) {
	t.Parallel()

	t.Run("empty patch passes", func(t *testing.T) {
		require.NoError(t, validateProfilePatch(domain.AccountPatch{}))
	})

	t.Run("name must have at least 2 characters after trim", func(t *testing.T) {
		err := validateProfilePatch(domain.AccountPatch{Name: strPtr(" x ")})
		require.Equal(t, "name must be at least 2 characters", apperr.MessageOf(err))

		require.NoError(t, validateProfilePatch(domain.AccountPatch{Name: strPtr("Om")}))
	})

	t.Run("email shape", func(t *testing.T) {
		for _, bad := range []string{"plain", "no@tld", "spaces in@example.com", "@example.com"} {
			err := validateProfilePatch(domain.AccountPatch{Email: strPtr(bad)})
			require.Equal(t, "invalid email format", apperr.MessageOf(err), "email %q", bad)
		}
		require.NoError(t, validateProfilePatch(domain.AccountPatch{Email: strPtr("ok@example.com")}))
	})

	t.Run("checks run in fixed order", func(t *testing.T) {
		// Both name and email are invalid; the name error wins.
		err := validateProfilePatch(domain.AccountPatch{
			Name:  strPtr("x"),
			Email: strPtr("not-an-email"),
		})
		require.Equal(t, "name must be at least 2 characters", apperr.MessageOf(err))
	})

	t.Run("currency", func(t *testing.T) {
		bad := domain.Currency("JPY")
		err := validateProfilePatch(domain.AccountPatch{PreferredCurrency: &bad})
		require.Equal(t, "preferred currency must be one of INR, USD, EUR, GBP, AUD, CAD", apperr.MessageOf(err))

		inr := domain.CurrencyINR
		require.NoError(t, validateProfilePatch(domain.AccountPatch{PreferredCurrency: &inr}))
	})
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	t.Run("empty clears the field", func(t *testing.T) {
		require.NoError(t, validatePhone(""))
		require.NoError(t, validatePhone("   "))
	})

	t.Run("separators are stripped before counting", func(t *testing.T) {
		require.NoError(t, validatePhone("9876543210"))
		require.NoError(t, validatePhone("98765 43210"))
		require.NoError(t, validatePhone("98765-43210"))
		require.NoError(t, validatePhone("+9876543210"))
	})

	t.Run("must be exactly 10 digits", func(t *testing.T) {
		for _, bad := range []string{"987654321", "98765432101", "98765abcde", "+91 98765 43210"} {
			err := validatePhone(bad)
			require.Equal(t, "phone must be 10 digits", apperr.MessageOf(err), "phone %q", bad)
		}
	})
}

func TestValidateAvatar(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateAvatar(""))
	require.NoError(t, validateAvatar("https://cdn.example.com/a/b.png"))

	for _, bad := range []string{"not a url", "/relative/path", "example.com/no-scheme"} {
		err := validateAvatar(bad)
		require.Equal(t, "avatar must be a valid URL", apperr.MessageOf(err), "avatar %q", bad)
	}
}

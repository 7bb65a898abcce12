package service

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/internal/accounts/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validateProfilePatch checks the format of profile fields before any update
// touches the store. Checks run in a fixed order (name, email, phone, avatar,
// currency) and stop at the first failure, so error messages are stable.
func validateProfilePatch(p domain.AccountPatch) error {
	if p.Name != nil {
		if len(strings.TrimSpace(*p.Name)) < 2 {
			return apperr.Validation("name must be at least 2 characters")
		}
	}

	if p.Email != nil {
		if !emailPattern.MatchString(strings.TrimSpace(*p.Email)) {
			return apperr.Validation("invalid email format")
		}
	}

	if p.Phone != nil {
		if err := validatePhone(*p.Phone); err != nil {
			return err
		}
	}

	if p.Avatar != nil {
		if err := validateAvatar(*p.Avatar); err != nil {
			return err
		}
	}

	if p.PreferredCurrency != nil && !p.PreferredCurrency.Valid() {
		return apperr.Validation("preferred currency must be one of INR, USD, EUR, GBP, AUD, CAD")
	}

	return nil
}

// validatePhone accepts an empty phone (clears the field) and otherwise
// requires exactly 10 digits after stripping spaces, hyphens and plus signs.
func validatePhone(phone string) error {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return nil
	}

	stripped := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(trimmed)
	if len(stripped) != 10 {
		return apperr.Validation("phone must be 10 digits")
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return apperr.Validation("phone must be 10 digits")
		}
	}
	return nil
}

func validateAvatar(avatar string) error {
	trimmed := strings.TrimSpace(avatar)
	if trimmed == "" {
		return nil
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperr.Validation("avatar must be a valid URL")
	}
	return nil
}

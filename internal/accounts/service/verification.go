package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/store"
	"github.com/karwaan/bazaar/pkg/cryptox"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// VerificationChannel selects which contact detail a code verifies.
type VerificationChannel string

const (
	ChannelEmail VerificationChannel = "email"
	ChannelPhone VerificationChannel = "phone"
)

func ParseVerificationChannel(s string) (VerificationChannel, error) {
	switch VerificationChannel(s) {
	case ChannelEmail, ChannelPhone:
		return VerificationChannel(s), nil
	}
	return "", fmt.Errorf("unknown verification channel %q", s)
}

// DefaultCodeTTL is the validity window of a verification code.
const DefaultCodeTTL = 10 * time.Minute

// VerificationService issues and confirms the 6-digit codes behind the
// emailVerified/phoneVerified flags. Codes are TOTP values derived from a
// per-account per-channel secret stored encrypted at rest, so nothing
// reusable sits in the database. Delivery (mail/SMS) is a separate
// collaborator; this service only produces and checks codes.
type VerificationService struct {
	Store    store.Store
	Accounts *AccountService
	Issuer   string
	CodeTTL  time.Duration
}

func (s *VerificationService) ttl() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultCodeTTL
}

func (s *VerificationService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.ttl().Seconds()),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// RequestCode returns a fresh code for the channel, creating and persisting
// the underlying secret on first use.
func (s *VerificationService) RequestCode(ctx context.Context, accountID string, channel VerificationChannel) (string, error) {
	acct, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}

	secret, err := s.loadSecret(ctx, accountID, channel)
	if err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return "", err
		}
		secret, err = s.createSecret(ctx, acct, channel)
		if err != nil {
			return "", err
		}
	}

	code, err := totp.GenerateCodeCustom(secret, time.Now(), s.validateOpts())
	if err != nil {
		return "", apperr.Internal("failed to generate verification code", err)
	}
	return code, nil
}

// ConfirmCode checks the code and, when valid, flips the channel's verified
// flag through the versioned update path and retires the secret.
func (s *VerificationService) ConfirmCode(ctx context.Context, accountID string, channel VerificationChannel, code string) error {
	secret, err := s.loadSecret(ctx, accountID, channel)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Validation("no verification code was requested")
		}
		return err
	}

	valid, err := totp.ValidateCustom(code, secret, time.Now(), s.validateOpts())
	if err != nil || !valid {
		return apperr.Validation("invalid or expired verification code")
	}

	verified := true
	patch := domain.AccountPatch{}
	switch channel {
	case ChannelPhone:
		patch.PhoneVerified = &verified
	default:
		patch.EmailVerified = &verified
	}
	if _, err := s.Accounts.Update(ctx, accountID, patch, nil); err != nil {
		return err
	}

	// A confirmed secret is single-use.
	if err := s.Store.VerificationSecrets().Delete(ctx, accountID, string(channel)); err != nil &&
		!errors.Is(err, store.ErrNotFound) {
		return apperr.Internal("failed to retire verification secret", err)
	}
	return nil
}

func (s *VerificationService) loadSecret(ctx context.Context, accountID string, channel VerificationChannel) (string, error) {
	encrypted, err := s.Store.VerificationSecrets().Get(ctx, accountID, string(channel))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperr.NotFound("verification secret not found")
		}
		return "", apperr.Internal("failed to load verification secret", err)
	}

	plain, err := cryptox.DecryptSecret(encrypted)
	if err != nil {
		return "", apperr.Internal("failed to decrypt verification secret", err)
	}
	return string(plain), nil
}

func (s *VerificationService) createSecret(ctx context.Context, acct domain.Account, channel VerificationChannel) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: acct.Email,
		Period:      uint(s.ttl().Seconds()),
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return "", apperr.Internal("failed to generate verification secret", err)
	}

	encrypted, err := cryptox.EncryptSecret([]byte(key.Secret()))
	if err != nil {
		return "", apperr.Internal("failed to encrypt verification secret", err)
	}
	if err := s.Store.VerificationSecrets().Put(ctx, acct.ID, string(channel), encrypted); err != nil {
		return "", apperr.Internal("failed to store verification secret", err)
	}
	return key.Secret(), nil
}

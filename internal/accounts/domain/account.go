package domain

import (
	"strings"
	"time"
)

// Account is the persisted marketplace account record. Mutation goes through
// the account service's transactional update path; Version increases by
// exactly one on every successful write.
type Account struct {
	ID     string
	Email  string // stored lower-cased, unique
	Name   string
	Phone  string
	Avatar string

	Role   Role
	Status Status

	EmailVerified     bool
	PhoneVerified     bool
	PreferredCurrency Currency

	Preferences Preferences
	StatusAudit StatusAudit
	Login       LoginMetadata

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Preferences are merged on update, never replaced wholesale.
type Preferences struct {
	Newsletter       bool
	SMSNotifications bool
	OrderUpdates     bool
	Language         string
	Timezone         string
}

// DefaultPreferences returns the preference set applied at account creation.
func DefaultPreferences() Preferences {
	return Preferences{
		Newsletter:       true,
		SMSNotifications: false,
		OrderUpdates:     true,
		Language:         "en",
		Timezone:         "Asia/Kolkata",
	}
}

// StatusAudit carries the audit trail for ban/suspension states. Fields are
// only populated while the account is in the corresponding status and are
// cleared when the status is lifted.
type StatusAudit struct {
	BannedAt  *time.Time
	BannedBy  string
	BanReason string

	SuspendedAt      *time.Time
	SuspendedUntil   *time.Time
	SuspensionReason string
}

// LoginMetadata is best-effort login tracking. Writes to it never fail a
// login flow.
type LoginMetadata struct {
	LastLoginAt *time.Time
	LastLoginIP string
	LoginCount  int64
}

// NormalizeEmail lower-cases and trims an email for storage and comparison.
// Email uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountPatch is a partial update merged onto an existing account. Nil
// fields are left untouched.
type AccountPatch struct {
	Name   *string
	Email  *string
	Phone  *string
	Avatar *string

	Role   *Role
	Status *Status

	EmailVerified     *bool
	PhoneVerified     *bool
	PreferredCurrency *Currency

	Preferences *PreferencesPatch
}

// PreferencesPatch is a partial preferences update; nil fields keep their
// previous value.
type PreferencesPatch struct {
	Newsletter       *bool
	SMSNotifications *bool
	OrderUpdates     *bool
	Language         *string
	Timezone         *string
}

// Apply merges the patch onto an account record. Email is normalised; the
// caller is responsible for uniqueness and version handling.
func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		a.Email = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		a.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Avatar != nil {
		a.Avatar = strings.TrimSpace(*p.Avatar)
	}
	if p.Role != nil {
		a.Role = *p.Role
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.EmailVerified != nil {
		a.EmailVerified = *p.EmailVerified
	}
	if p.PhoneVerified != nil {
		a.PhoneVerified = *p.PhoneVerified
	}
	if p.PreferredCurrency != nil {
		a.PreferredCurrency = *p.PreferredCurrency
	}
	if p.Preferences != nil {
		a.Preferences = p.Preferences.Apply(a.Preferences)
	}
	return a
}

// IsZero reports whether the patch changes nothing.
func (p AccountPatch) IsZero() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Avatar == nil &&
		p.Role == nil && p.Status == nil && p.EmailVerified == nil &&
		p.PhoneVerified == nil && p.PreferredCurrency == nil && p.Preferences == nil
}

// Apply merges the patch onto existing preferences.
func (p PreferencesPatch) Apply(prefs Preferences) Preferences {
	if p.Newsletter != nil {
		prefs.Newsletter = *p.Newsletter
	}
	if p.SMSNotifications != nil {
		prefs.SMSNotifications = *p.SMSNotifications
	}
	if p.OrderUpdates != nil {
		prefs.OrderUpdates = *p.OrderUpdates
	}
	if p.Language != nil {
		prefs.Language = *p.Language
	}
	if p.Timezone != nil {
		prefs.Timezone = *p.Timezone
	}
	return prefs
}

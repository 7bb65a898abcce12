package http

import (
	"net/http"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/service"
	"github.com/karwaan/bazaar/pkg/httpx"
)

// requester derives the authorization context from the verified claims the
// authn middleware attached. Unauthenticated requests yield a zero
// RequestingUser, which the policy layer rejects.
func requester(r *http.Request) domain.RequestingUser {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return domain.RequestingUser{}
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		role = domain.DefaultRole
	}
	return domain.RequestingUser{
		UID:      claims.Subject,
		Role:     role,
		Email:    claims.Email,
		SellerID: claims.SellerID,
	}
}

type accountResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`

	Role   string `json:"role"`
	Status string `json:"status"`

	EmailVerified     bool   `json:"email_verified"`
	PhoneVerified     bool   `json:"phone_verified"`
	PreferredCurrency string `json:"preferred_currency"`

	Preferences preferencesResponse `json:"preferences"`

	BannedAt         *time.Time `json:"banned_at,omitempty"`
	BannedBy         string     `json:"banned_by,omitempty"`
	BanReason        string     `json:"ban_reason,omitempty"`
	SuspendedAt      *time.Time `json:"suspended_at,omitempty"`
	SuspendedUntil   *time.Time `json:"suspended_until,omitempty"`
	SuspensionReason string     `json:"suspension_reason,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LoginCount  int64      `json:"login_count"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type preferencesResponse struct {
	Newsletter       bool   `json:"newsletter"`
	SMSNotifications bool   `json:"sms_notifications"`
	OrderUpdates     bool   `json:"order_updates"`
	Language         string `json:"language"`
	Timezone         string `json:"timezone"`
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:                a.ID,
		Email:             a.Email,
		Name:              a.Name,
		Phone:             a.Phone,
		Avatar:            a.Avatar,
		Role:              a.Role.String(),
		Status:            a.Status.String(),
		EmailVerified:     a.EmailVerified,
		PhoneVerified:     a.PhoneVerified,
		PreferredCurrency: a.PreferredCurrency.String(),
		Preferences:       toPreferencesResponse(a.Preferences),
		BannedAt:          a.StatusAudit.BannedAt,
		BannedBy:          a.StatusAudit.BannedBy,
		BanReason:         a.StatusAudit.BanReason,
		SuspendedAt:       a.StatusAudit.SuspendedAt,
		SuspendedUntil:    a.StatusAudit.SuspendedUntil,
		SuspensionReason:  a.StatusAudit.SuspensionReason,
		LastLoginAt:       a.Login.LastLoginAt,
		LoginCount:        a.Login.LoginCount,
		Version:           a.Version,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toPreferencesResponse(p domain.Preferences) preferencesResponse {
	return preferencesResponse{
		Newsletter:       p.Newsletter,
		SMSNotifications: p.SMSNotifications,
		OrderUpdates:     p.OrderUpdates,
		Language:         p.Language,
		Timezone:         p.Timezone,
	}
}

func toAccountResponses(accts []domain.Account) []accountResponse {
	out := make([]accountResponse, len(accts))
	for i, a := range accts {
		out[i] = toAccountResponse(a)
	}
	return out
}

// accountPatchRequest is the JSON shape of a partial account update. String
// enum fields are parsed here so the service layer only ever sees domain
// types.
type accountPatchRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`

	Role   *string `json:"role"`
	Status *string `json:"status"`

	EmailVerified     *bool   `json:"email_verified"`
	PhoneVerified     *bool   `json:"phone_verified"`
	PreferredCurrency *string `json:"preferred_currency"`

	Preferences *preferencesPatchRequest `json:"preferences"`

	// ExpectedVersion enables optimistic concurrency; omit to skip the check.
	ExpectedVersion *int64 `json:"expected_version"`
}

type preferencesPatchRequest struct {
	Newsletter       *bool   `json:"newsletter"`
	SMSNotifications *bool   `json:"sms_notifications"`
	OrderUpdates     *bool   `json:"order_updates"`
	Language         *string `json:"language"`
	Timezone         *string `json:"timezone"`
}

// toDomain converts the request shape to a domain patch. Role, status and
// currency strings pass through unparsed-but-typed; the policy layer owns
// validity checks so invalid values produce its error messages.
func (req accountPatchRequest) toDomain() domain.AccountPatch {
	patch := domain.AccountPatch{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Avatar: req.Avatar,

		EmailVerified: req.EmailVerified,
		PhoneVerified: req.PhoneVerified,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		patch.Status = &status
	}
	if req.PreferredCurrency != nil {
		cur := domain.Currency(*req.PreferredCurrency)
		patch.PreferredCurrency = &cur
	}
	if req.Preferences != nil {
		patch.Preferences = req.Preferences.toDomain()
	}
	return patch
}

func (req *preferencesPatchRequest) toDomain() *domain.PreferencesPatch {
	return &domain.PreferencesPatch{
		Newsletter:       req.Newsletter,
		SMSNotifications: req.SMSNotifications,
		OrderUpdates:     req.OrderUpdates,
		Language:         req.Language,
		Timezone:         req.Timezone,
	}
}

type createAccountRequest struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`

	Role              *string                  `json:"role"`
	PreferredCurrency *string                  `json:"preferred_currency"`
	Preferences       *preferencesPatchRequest `json:"preferences"`
}

func (req createAccountRequest) toInput() service.CreateAccountInput {
	in := service.CreateAccountInput{
		ID:     req.ID,
		Email:  req.Email,
		Name:   req.Name,
		Phone:  req.Phone,
		Avatar: req.Avatar,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}
	if req.PreferredCurrency != nil {
		cur := domain.Currency(*req.PreferredCurrency)
		in.PreferredCurrency = &cur
	}
	if req.Preferences != nil {
		in.Preferences = req.Preferences.toDomain()
	}
	return in
}

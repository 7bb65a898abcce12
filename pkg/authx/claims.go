// Package authx verifies the bearer credentials issued by the external
// identity provider. The account service never mints user tokens itself; it
// only checks them and extracts the caller context.
package authx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims this service cares about. Additive changes
// only, to stay compatible with tokens minted by older provider versions.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the marketplace role claim ("admin", "seller", "user").
	Role string `json:"role,omitempty"`

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`

	// SellerID is present for seller accounts.
	SellerID string `json:"seller_id,omitempty"`
}

// NewClaims builds minimally-correct claims, mainly for tests and internal
// tooling.
func NewClaims(subject, role, email, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:  role,
		Email: email,
	}
}

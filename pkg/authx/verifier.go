package authx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("authx: malformed token")
	ErrInvalidSig = errors.New("authx: invalid signature")
	ErrExpired    = errors.New("authx: token expired")
	ErrIssuer     = errors.New("authx: issuer mismatch")
)

// Verifier validates a bearer token and returns the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Verifier checks HMAC-SHA256 tokens against a shared secret. The
// secret is provisioned out of band by the identity provider.
type HS256Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewHS256 returns a verifier bound to the given secret and expected issuer.
// An empty issuer means "don't care".
func NewHS256(secret []byte, issuer string) *HS256Verifier {
	return &HS256Verifier{
		secret: secret,
		issuer: issuer,
		leeway: 30 * time.Second, // time sync is never perfect
	}
}

func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, mapError(err)
	}
	return claims, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return ErrMalformed
	}
}

// SignHS256 mints a token for the given claims. Used by tests and by the
// internal CLI tooling; production tokens come from the identity provider.
func SignHS256(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

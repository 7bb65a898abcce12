package httpx

import (
	"context"

	"github.com/karwaan/bazaar/pkg/authx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// ClaimsFromContext returns the verified claims attached by AuthnMiddleware,
// or false when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) (authx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(authx.Claims)
	return c, ok
}

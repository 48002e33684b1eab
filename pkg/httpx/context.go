package httpx

import (
	"context"

	"github.com/aussiebroadwan/learnhub/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// ContextWithClaims stores verified access-token claims for downstream handlers.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.UserID)
	return context.WithValue(ctx, CtxKeyClaims, c)
}

// ClaimsFromContext returns claims placed by the edge gate, if any. Requests
// admitted after a renewal carry no claims, the new token was never seen.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

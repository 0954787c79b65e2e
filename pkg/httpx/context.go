package httpx

import (
	"context"

	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUser   ctxKey = "user"
	CtxKeyClaims ctxKey = "claims"
)

// Principal is the authenticated caller stored in the request context.
type Principal interface {
	PrincipalID() string
}

// ContextWithUser stores the authenticated user and the claims it was
// loaded from.
func ContextWithUser(ctx context.Context, u Principal, claims jwtx.ClaimSet) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUser, u)
	ctx = context.WithValue(ctx, CtxKeyClaims, claims)
	return ctx
}

// PrincipalFromContext returns the current caller, if the request is
// authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyUser).(Principal)
	return p, ok
}

// UserFromContext returns the current user as U. It reports false for
// anonymous requests and for principals of another type.
func UserFromContext[U Principal](ctx context.Context) (U, bool) {
	u, ok := ctx.Value(CtxKeyUser).(U)
	return u, ok
}

func ClaimsFromContext(ctx context.Context) (jwtx.ClaimSet, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.ClaimSet)
	return c, ok
}

package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (jwtx.ClaimSet, error)
}

// UserLookup loads the user a token was issued to.
type UserLookup[U Principal] interface {
	GetUserByID(ctx context.Context, id string) (U, error)
}

// AuthnMiddleware resolves the bearer token into a user stored in the
// request context. When required is false a missing or bad token leaves the
// request anonymous; otherwise it is rejected with 401.
func AuthnMiddleware[U Principal](v TokenValidator, users UserLookup[U], required bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			reject := func(desc string) {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				writeBearerError(w, desc)
			}

			raw, ok := bearerToken(r)
			if !ok {
				reject("missing bearer token")
				return
			}

			claims, err := v.ValidateToken(ctx, raw)
			if err != nil {
				log.Debug("access token rejected", slog.Any("error", err))
				reject("token verification failed")
				return
			}

			sub := claims.Subject()
			if sub == "" {
				reject("token has no subject")
				return
			}

			user, err := users.GetUserByID(ctx, sub)
			if err != nil {
				log.Info("access token subject not loadable",
					slog.String("user_id", sub),
					slog.Any("error", err),
				)
				reject("unknown subject")
				return
			}

			ctx = ContextWithUser(ctx, user, claims)
			ctx = slogx.With(ctx, slog.String("user_id", user.PrincipalID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(authz, "Bearer ")
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	ErrUnauthorized.WithDescription(desc).WriteError(w)
}

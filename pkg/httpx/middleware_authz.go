package httpx

import (
	"fmt"
	"net/http"
)

// RoleHolder is a principal that can be checked against a required role.
type RoleHolder[R fmt.Stringer] interface {
	Principal
	HasRole(required R) bool
}

// RequireRole admits authenticated users whose role is at least role.
// Anonymous callers get 401, callers with a lower role get 403.
func RequireRole[R fmt.Stringer](role R) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeBearerError(w, "authentication required")
				return
			}
			holder, ok := p.(RoleHolder[R])
			if !ok || !holder.HasRole(role) {
				ErrForbidden.WithDescription("requires role " + role.String()).WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

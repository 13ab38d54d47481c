package auth

import (
	"net/http"

	"github.com/glagol-app/glagol/internal/rbac"
)

// AttachRole copies the authenticated role onto the rbac context so the
// permission middleware can see it. Mount after JWTMiddleware.
func AttachRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role := RoleFromContext(r.Context()); role != "" {
				r = r.WithContext(rbac.WithRole(r.Context(), role))
			}
			next.ServeHTTP(w, r)
		})
	}
}

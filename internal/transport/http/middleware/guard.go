package middleware

import (
	"net/http"

	"payflow/internal/domain/access"
	"payflow/internal/transport/http/api"
)

// RequireRoles admits only sessions whose role is in roles; no roles means any
// signed-in session. Everyone else is sent to the login page with 303 See Other.
func RequireRoles(roles ...access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := GetSession(r.Context())
			decision := access.Check(sess.Principal(), roles)
			if !decision.Allowed {
				api.SeeOther(w, decision.Redirect, "unauthorized", "sign in with a permitted role", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

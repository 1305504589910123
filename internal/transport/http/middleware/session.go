package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"payflow/internal/auth"
	"payflow/internal/domain/session"
)

type SessionResolver interface {
	Current(ctx context.Context, id string) (*session.Session, error)
}

// SessionToken reads the console token from the session cookie, falling back
// to an Authorization bearer header.
func SessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Session resolves the signed-in session, if any. Requests without a valid
// session pass through unauthenticated; guards decide what to do with them.
func Session(resolver SessionResolver, secret, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := SessionToken(r, cookieName)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := resolver.Current(r.Context(), claims.SessionID)
			if err != nil {
				slog.Warn("session lookup failed", "err", err, "request_id", GetRequestID(r.Context()))
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

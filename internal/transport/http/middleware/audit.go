package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"payflow/internal/domain/audit"
)

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Event, after any) error
}

// Audit records a privileged action for the signed-in session. A nil recorder
// is a no-op and failures are only logged.
func Audit(r *http.Request, rec AuditRecorder, action, entityType, entityID string, after any) {
	if rec == nil {
		return
	}
	e := audit.Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  GetRequestID(r.Context()),
		IP:         clientIPKey(r),
	}
	if sess, ok := GetSession(r.Context()); ok {
		e.ActorID = sess.UserID
		if e.ActorID == "" {
			e.ActorID = sess.Email
		}
		e.ActorRole = string(sess.Role)
	}
	if err := rec.Record(r.Context(), e, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err, "request_id", e.RequestID)
	}
}

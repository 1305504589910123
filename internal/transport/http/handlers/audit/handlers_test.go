package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/access"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/session"
	"payflow/internal/transport/http/middleware"
)

func setup(t *testing.T) (http.Handler, *audit.Service) {
	t.Helper()
	svc := audit.New(audit.NewMemoryStore(100))
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r, svc
}

func get(h http.Handler, path string, role access.Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sess := &session.Session{ID: "s1", AuthToken: "tok", Role: role, UserID: "1"}
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListEvents(t *testing.T) {
	h, svc := setup(t)
	require.NoError(t, svc.Record(context.Background(), audit.Event{ActorID: "2", Action: audit.ActionHoldPlace, EntityType: "payment_hold", EntityID: "7"}, nil))
	require.NoError(t, svc.Record(context.Background(), audit.Event{ActorID: "2", Action: audit.ActionCTCAdd, EntityType: "ctc", EntityID: "7"}, nil))

	rr := get(h, "/audit/events?entityType=payment_hold", access.RoleHR)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))
	assert.Contains(t, rr.Body.String(), audit.ActionHoldPlace)
	assert.NotContains(t, rr.Body.String(), audit.ActionCTCAdd)
}

func TestListEventsRejectsBadFilters(t *testing.T) {
	h, _ := setup(t)

	rr := get(h, "/audit/events?entityType=invoice", access.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "entityType")

	rr = get(h, "/audit/events?from=2024-03-10&to=2024-03-01", access.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "must be on or before to")
}

func TestExportIsAdminOnly(t *testing.T) {
	h, svc := setup(t)
	require.NoError(t, svc.Record(context.Background(), audit.Event{ActorID: "2", ActorRole: "HR", Action: audit.ActionOnboard, EntityType: "employee", EntityID: "new@payflow.test"}, nil))

	rr := get(h, "/audit/events/export", access.RoleHR)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = get(h, "/audit/events/export", access.RoleAdmin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,actor_user_id,actor_role,action"))
	assert.Contains(t, lines[1], "new@payflow.test")
}

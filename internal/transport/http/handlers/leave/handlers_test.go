package leavehandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/access"
	"payflow/internal/domain/leave"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/middleware"
)

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(t *testing.T, mux *http.ServeMux) http.Handler {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	r := chi.NewRouter()
	NewHandler(leave.NewService(backend.New(srv.URL, time.Second), time.Minute), nil).RegisterRoutes(r)
	return r
}

func serve(t *testing.T, h http.Handler, req *http.Request, sess *session.Session) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var out response
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func queueMux(actions *atomic.Int32) *http.ServeMux {
	queue := `[{"id":9,"status":"PENDING"},{"id":10,"status":"ACCEPTED"}]`
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/employee/leaves/all", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(queue))
	})
	mux.HandleFunc("GET /api/manager/11/leaves", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":9,"status":"PENDING"}]`))
	})
	mux.HandleFunc("POST /api/employee/leave/{id}/action", func(w http.ResponseWriter, r *http.Request) {
		actions.Add(1)
	})
	return mux
}

func TestDecidedRequestCannotBeActedOnAgain(t *testing.T) {
	var actions atomic.Int32
	h := newRouter(t, queueMux(&actions))
	sess := &session.Session{ID: "s1", AuthToken: "tok", Role: access.RoleHR, UserID: "1"}

	rr, out := serve(t, h, httptest.NewRequest(http.MethodPost, "/leave/requests/10/action", strings.NewReader(`{"action":"DENY","reason":"late"}`)), sess)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_decided", out.Error.Code)

	rr, _ = serve(t, h, httptest.NewRequest(http.MethodPost, "/leave/requests/9/action", strings.NewReader(`{"action":"ACCEPT"}`)), sess)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, actions.Load())
}

func TestManagerWithoutManagerIDIsForbidden(t *testing.T) {
	var actions atomic.Int32
	h := newRouter(t, queueMux(&actions))
	sess := &session.Session{ID: "s2", AuthToken: "tok", Role: access.RoleManager, UserID: "4"}

	rr, out := serve(t, h, httptest.NewRequest(http.MethodGet, "/leave/requests", nil), sess)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "actor_unknown", out.Error.Code)

	rr, out = serve(t, h, httptest.NewRequest(http.MethodPost, "/leave/requests/9/action", strings.NewReader(`{"action":"ACCEPT"}`)), sess)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "actor_unknown", out.Error.Code)
	assert.Zero(t, actions.Load())
}

func TestManagerCannotActOutsideTeam(t *testing.T) {
	var actions atomic.Int32
	h := newRouter(t, queueMux(&actions))
	sess := &session.Session{ID: "s3", AuthToken: "tok", Role: access.RoleManager, UserID: "4", ManagerID: "11"}

	rr, out := serve(t, h, httptest.NewRequest(http.MethodPost, "/leave/requests/10/action", strings.NewReader(`{"action":"ACCEPT"}`)), sess)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "leave_request_not_found", out.Error.Code)
	assert.Zero(t, actions.Load())

	rr, out = serve(t, h, httptest.NewRequest(http.MethodGet, "/leave/requests", nil), sess)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Requests []leave.Request `json:"requests"`
		Counts   leave.Counts    `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &list))
	assert.Len(t, list.Requests, 1)
	assert.Equal(t, leave.Counts{Total: 1, Pending: 1}, list.Counts)
}

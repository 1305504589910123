package resignationhandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/access"
	"payflow/internal/domain/resignation"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/middleware"
)

type response struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var (
	employee = &session.Session{ID: "s1", AuthToken: "t-emp", Role: access.RoleEmployee, Email: "asha@payflow.test", EmployeeID: "7"}
	hr       = &session.Session{ID: "s2", AuthToken: "t-hr", Role: access.RoleHR, Email: "hr@payflow.test", UserID: "2"}
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	var (
		mu   sync.Mutex
		rows []map[string]any
	)
	list := func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if rows == nil {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_ = json.NewEncoder(w).Encode(rows)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/resignation/history", list)
	mux.HandleFunc("GET /api/resignation/all", list)
	mux.HandleFunc("POST /api/resignation/submit", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		rows = append(rows, map[string]any{
			"id": 41, "employeeEmail": body["employeeEmail"], "status": "APPROVED",
			"requestedLastWorkingDay": body["requestedLastWorkingDay"], "reason": body["reason"],
		})
		mu.Unlock()
	})
	mux.HandleFunc("GET /api/resignation/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalResignations":4,"pendingResignations":1,"overdueResignations":1}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := chi.NewRouter()
	NewHandler(resignation.NewService(backend.New(srv.URL, time.Second), time.Minute), nil).RegisterRoutes(r)
	return r
}

func call(t *testing.T, h http.Handler, sess *session.Session, method, path, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var out response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return rr.Code, out
}

func TestEmployeeResignationFlow(t *testing.T) {
	h := newRouter(t)
	lastDay := time.Now().AddDate(0, 1, 0).Format("2006-01-02")

	code, out := call(t, h, employee, http.MethodGet, "/resignation", "")
	require.Equal(t, http.StatusOK, code)
	var view struct {
		HasActive bool     `json:"hasActive"`
		Reasons   []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &view))
	assert.False(t, view.HasActive)
	assert.Contains(t, view.Reasons, "Relocation")

	code, out = call(t, h, employee, http.MethodPost, "/resignation", `{"requestedLastWorkingDay":"`+lastDay+`","reason":"Relocation"}`)
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		Notice string             `json:"notice"`
		Counts resignation.Counts `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &created))
	assert.Equal(t, noticeSubmitted, created.Notice)
	assert.Equal(t, resignation.Counts{Total: 1, Approved: 1}, created.Counts)

	code, out = call(t, h, employee, http.MethodPost, "/resignation", `{"requestedLastWorkingDay":"`+lastDay+`","reason":"Relocation"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "active_resignation", out.Error.Code)

	code, out = call(t, h, employee, http.MethodPost, "/resignation/41/withdraw", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_decided", out.Error.Code)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	h := newRouter(t)

	code, out := call(t, h, employee, http.MethodPost, "/resignation", `{"requestedLastWorkingDay":"31/07/2024","reason":"Relocation"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", out.Error.Code)

	code, out = call(t, h, employee, http.MethodPost, "/resignation", `{"requestedLastWorkingDay":"2020-01-01","reason":"Relocation"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, resignation.ErrLastDayTooSoon.Error(), out.Error.Message)
}

func TestReviewerRoutes(t *testing.T) {
	h := newRouter(t)

	code, out := call(t, h, hr, http.MethodGet, "/resignation/stats", "")
	require.Equal(t, http.StatusOK, code)
	var stats resignation.Stats
	require.NoError(t, json.Unmarshal(out.Data, &stats))
	assert.Equal(t, 4, stats.TotalResignations)

	code, out = call(t, h, hr, http.MethodPost, "/resignation/requests/41/action", `{"action":"APPROVE"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "resignation_not_found", out.Error.Code)

	code, _ = call(t, h, employee, http.MethodGet, "/resignation/stats", "")
	assert.Equal(t, http.StatusSeeOther, code)

	mgr := &session.Session{ID: "s3", AuthToken: "t-mgr", Role: access.RoleManager, UserID: "4"}
	code, out = call(t, h, mgr, http.MethodGet, "/resignation/requests", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "actor_unknown", out.Error.Code)
}

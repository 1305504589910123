package reminderhandler

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
	"payflow/internal/domain/reminder"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/middleware"
)

type response struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

var (
	employee = &session.Session{ID: "s1", AuthToken: "tok", Role: access.RoleEmployee, EmployeeID: "7"}
	manager  = &session.Session{ID: "s2", AuthToken: "tok", Role: access.RoleManager, UserID: "4", ManagerID: "4"}
)

func newRouter(t *testing.T, notified *atomic.Int32) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reminders/employee/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":22,"employeeId":7,"text":"Submit timesheets","date":"2024-06-20","notified":true}]`))
	})
	mux.HandleFunc("GET /api/reminders/manager/4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":21,"managerId":4,"text":"Submit timesheets","date":"2024-06-20"}]`))
	})
	mux.HandleFunc("GET /api/manager/4/team", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":7}]`))
	})
	mux.HandleFunc("POST /api/reminders/add", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":23,"managerId":4,"text":"Team sync","date":"2024-06-21"}`))
	})
	mux.HandleFunc("POST /api/reminders/notify/4", func(w http.ResponseWriter, r *http.Request) {
		notified.Add(1)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := chi.NewRouter()
	NewHandler(reminder.NewService(backend.New(srv.URL, time.Second)), nil).RegisterRoutes(r)
	return r
}

func call(t *testing.T, h http.Handler, sess *session.Session, method, path, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var out response
	if rr.Code != http.StatusSeeOther {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr.Code, out
}

func TestEachRoleSeesOwnReminders(t *testing.T) {
	var notified atomic.Int32
	h := newRouter(t, &notified)

	code, out := call(t, h, employee, http.MethodGet, "/reminders", "")
	require.Equal(t, http.StatusOK, code)
	var list []reminder.Reminder
	require.NoError(t, json.Unmarshal(out.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "22", list[0].ID.String())

	code, out = call(t, h, manager, http.MethodGet, "/reminders", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(out.Data, &list))
	assert.Equal(t, "21", list[0].ID.String())

	noTeam := &session.Session{ID: "s3", AuthToken: "tok", Role: access.RoleManager, UserID: "5"}
	code, out = call(t, h, noTeam, http.MethodGet, "/reminders", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "actor_unknown", out.Error.Code)
}

func TestManagerAddsAndNotifies(t *testing.T) {
	var notified atomic.Int32
	h := newRouter(t, &notified)

	code, _ := call(t, h, manager, http.MethodPost, "/reminders", `{"text":"Team sync","date":"2024-06-21"}`)
	assert.Equal(t, http.StatusCreated, code)

	code, out := call(t, h, manager, http.MethodPost, "/reminders", `{"text":"Team sync","date":"21/06/2024"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", out.Error.Code)

	code, out = call(t, h, manager, http.MethodPost, "/reminders/notify", `{"reminderId":"21","employeeIds":["9"]}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "not_team_member", out.Error.Code)

	code, out = call(t, h, manager, http.MethodPost, "/reminders/notify", `{"reminderId":"21","employeeIds":["7"]}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"notified":1}`, string(out.Data))
	assert.EqualValues(t, 1, notified.Load())

	code, _ = call(t, h, employee, http.MethodPost, "/reminders", `{"text":"x","date":"2024-06-21"}`)
	assert.Equal(t, http.StatusSeeOther, code)
}

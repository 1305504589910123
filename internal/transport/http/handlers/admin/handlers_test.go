package adminhandler

import (
	"context"
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
	"payflow/internal/domain/admin"
	"payflow/internal/domain/audit"
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

type recorder struct {
	mu     sync.Mutex
	events []audit.Event
	afters []string
}

func (r *recorder) Record(_ context.Context, e audit.Event, after any) error {
	raw, err := json.Marshal(after)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.afters = append(r.afters, string(raw))
	return nil
}

var root = &session.Session{ID: "s1", AuthToken: "tok", Role: access.RoleAdmin, UserID: "1", Email: "admin@payflow.test"}

func newRouter(t *testing.T, rec middleware.AuditRecorder) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/add-user", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] == "taken@payflow.test" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"User with this email already exists"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"User added successfully and credentials emailed"}`))
	})
	mux.HandleFunc("PUT /api/admin/disable-user", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := chi.NewRouter()
	NewHandler(admin.NewService(backend.New(srv.URL, time.Second)), rec).RegisterRoutes(r)
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

func TestAdminAddsUserWithoutLeakingPassword(t *testing.T) {
	rec := &recorder{}
	h := newRouter(t, rec)

	code, out := call(t, h, root, http.MethodPost, "/admin/users", `{"name":"Ravi","email":"ravi@payflow.test","role":"Manager","password":"ravi-s3cret"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.NotContains(t, string(out.Data), "ravi-s3cret")
	var created admin.Created
	require.NoError(t, json.Unmarshal(out.Data, &created))
	assert.Equal(t, "MANAGER", created.Role)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionUserAdd, rec.events[0].Action)
	assert.NotContains(t, rec.afters[0], "ravi-s3cret")

	code, out = call(t, h, root, http.MethodPost, "/admin/users", `{"name":"Dup","email":"taken@payflow.test","role":"HR"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "user_exists", out.Error.Code)

	code, out = call(t, h, root, http.MethodPost, "/admin/users", `{"name":"Bad","email":"not-an-email","role":"HR"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", out.Error.Code)
}

func TestOnlyAdminManagesUsers(t *testing.T) {
	h := newRouter(t, nil)

	code, _ := call(t, h, root, http.MethodPost, "/admin/users/disable", `{"username":"ravi@payflow.test"}`)
	assert.Equal(t, http.StatusOK, code)

	hr := &session.Session{ID: "s2", AuthToken: "tok", Role: access.RoleHR, UserID: "2"}
	code, _ = call(t, h, hr, http.MethodPost, "/admin/users", `{"name":"Ravi","email":"ravi@payflow.test","role":"HR"}`)
	assert.Equal(t, http.StatusSeeOther, code)
}

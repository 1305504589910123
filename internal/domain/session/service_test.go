package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/auth"
	"payflow/internal/domain/access"
	"payflow/internal/platform/backend"
)

func fakeBackend(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "backend-token", "role": role, "firstLogin": false,
			"name": "Asha", "id": 11, "managerId": nil,
		})
	})
	mux.HandleFunc("/api/employee", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "asha@payflow.test", r.URL.Query().Get("email"))
		assert.Equal(t, "Bearer backend-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":7,"fullName":"Asha"}`))
	})
	mux.HandleFunc("/api/reset-password", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Password reset successful"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, role string, opts ...Option) (*Service, *MemoryStore) {
	srv := fakeBackend(t, role)
	store := NewMemoryStore()
	svc := NewService(store, backend.New(srv.URL, time.Second), opts...)
	svc.newID = func() string { return "sess-1" }
	return svc, store
}

func TestLoginEmployeeResolvesEmployeeID(t *testing.T) {
	svc, store := newTestService(t, "employee")

	sess, err := svc.Login(context.Background(), " asha@payflow.test ", "secret")
	require.NoError(t, err)
	assert.Equal(t, access.RoleEmployee, sess.Role)
	assert.Equal(t, "7", sess.EmployeeID)
	assert.Equal(t, "asha@payflow.test", sess.Email)
	assert.Equal(t, "11", sess.UserID)
	assert.Empty(t, sess.ManagerID)

	stored, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "backend-token", stored.AuthToken)
}

func TestLoginManagerKeepsManagerID(t *testing.T) {
	svc, _ := newTestService(t, "MANAGER")

	sess, err := svc.Login(context.Background(), "lead@payflow.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, access.RoleManager, sess.Role)
	assert.Equal(t, "11", sess.ManagerID)
	assert.Empty(t, sess.EmployeeID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newTestService(t, "HR")

	_, err := svc.Login(context.Background(), "hr@payflow.test", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t, "JANITOR")

	_, err := svc.Login(context.Background(), "x@payflow.test", "secret")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestLocalAdminLogin(t *testing.T) {
	hash, err := auth.HashPassword("admin-pass")
	require.NoError(t, err)
	svc, _ := newTestService(t, "HR", WithLocalAdmin("admin", hash))

	sess, err := svc.Login(context.Background(), "admin", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, access.RoleAdmin, sess.Role)
	assert.NotEmpty(t, sess.AuthToken)

	_, err = svc.Login(context.Background(), "admin", "admin123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCurrentAndLogout(t *testing.T) {
	svc, _ := newTestService(t, "HR")
	ctx := context.Background()

	missing, err := svc.Current(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.Login(ctx, "hr@payflow.test", "secret")
	require.NoError(t, err)

	current, err := svc.Current(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, access.RoleHR, current.Role)

	require.NoError(t, svc.Logout(ctx, "sess-1"))
	gone, err := svc.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestResetPasswordClearsFirstLogin(t *testing.T) {
	svc, store := newTestService(t, "HR")
	ctx := context.Background()
	sess := Session{ID: "s9", AuthToken: "tok", Role: access.RoleHR, FirstLogin: true}
	require.NoError(t, store.Save(ctx, sess))

	_, err := svc.ResetPassword(ctx, sess, "   ")
	require.ErrorIs(t, err, ErrPasswordRequired)

	updated, err := svc.ResetPassword(ctx, sess, "n3w-pass")
	require.NoError(t, err)
	assert.False(t, updated.FirstLogin)

	stored, err := store.Load(ctx, "s9")
	require.NoError(t, err)
	assert.False(t, stored.FirstLogin)
}

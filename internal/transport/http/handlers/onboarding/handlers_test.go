package onboardinghandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/access"
	"payflow/internal/domain/onboarding"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/middleware"
)

type response struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Details struct {
			Fields []struct {
				Field string `json:"field"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

const personal = `{"fullName":"Asha Rao","dob":"1994-05-02","gender":"Female","address":"12 MG Road",
	"email":"asha@payflow.test","phone":"9876543210","emergencyContact":"9123456780"}`

func setup(t *testing.T) http.Handler {
	t.Helper()
	srv := httptest.NewServer(http.NewServeMux())
	t.Cleanup(srv.Close)
	svc := onboarding.NewService(onboarding.NewMemoryStore(), backend.New(srv.URL, time.Second))
	r := chi.NewRouter()
	NewHandler(svc, nil).RegisterRoutes(r)
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	sess := &session.Session{ID: "wizard-1", AuthToken: "tok", Role: access.RoleHR}
	req = req.WithContext(middleware.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var out response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return rr.Code, out
}

func TestWizardStepsInOrder(t *testing.T) {
	h := setup(t)

	code, out := call(t, h, http.MethodPut, "/onboarding/steps/education", `{"qualification":"B.Com","institution":"SRCC","graduationYear":2015}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "step_out_of_order", out.Error.Code)

	code, out = call(t, h, http.MethodPut, "/onboarding/steps/personal", strings.Replace(personal, "asha@payflow.test", "not-an-email", 1))
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, out.Error.Details.Fields, 1)
	assert.Equal(t, "email", out.Error.Details.Fields[0].Field)

	code, out = call(t, h, http.MethodPut, "/onboarding/steps/personal", personal)
	require.Equal(t, http.StatusOK, code)
	var saved struct {
		Saved bool   `json:"saved"`
		Next  string `json:"next"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &saved))
	assert.True(t, saved.Saved)
	assert.Equal(t, "education", saved.Next)

	code, out = call(t, h, http.MethodGet, "/onboarding/steps/personal", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(out.Data, &saved))
	assert.True(t, saved.Saved)
}

func TestSubmitIncompleteDraft(t *testing.T) {
	h := setup(t)
	code, out := call(t, h, http.MethodPost, "/onboarding/submit", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "onboarding_incomplete", out.Error.Code)
}

func TestUnknownStep(t *testing.T) {
	h := setup(t)
	code, out := call(t, h, http.MethodPut, "/onboarding/steps/payroll", `{}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "unknown_step", out.Error.Code)
}

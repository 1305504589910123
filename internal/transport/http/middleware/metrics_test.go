package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type routeRecorder struct {
	route  string
	status int
}

func (r *routeRecorder) RecordRequest(method, route string, status int, _ time.Duration) {
	r.route = route
	r.status = status
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	rec := &routeRecorder{}
	router := chi.NewRouter()
	router.Use(Metrics(rec))
	router.Get("/api/payslips/{id}/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/payslips/31/pdf", nil))
	assert.Equal(t, "/api/payslips/{id}/pdf", rec.route)
	assert.Equal(t, http.StatusAccepted, rec.status)
}

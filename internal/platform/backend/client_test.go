package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	statuses []int
}

func (o *recordingObserver) RecordBackendCall(method string, status int, duration time.Duration) {
	o.statuses = append(o.statuses, status)
}

func TestClientSendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": body["value"]})
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := New(srv.URL, time.Second, WithObserver(obs))
	var out map[string]string
	err := c.Post(context.Background(), "/api/echo", "tok", map[string]string{"value": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
	assert.Equal(t, []int{http.StatusOK}, obs.statuses)
}

func TestClientSurfacesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Leave overlaps"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Get(context.Background(), "/api/x", "", nil)
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Leave overlaps", MessageOr(err, "generic"))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestClientErrorWithoutMessageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Get(context.Background(), "/api/x", "", nil)
	require.Error(t, err)
	assert.Equal(t, "generic", MessageOr(err, "generic"))
}

func TestClientTransportErrorIsNotBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	err := c.Get(context.Background(), "/api/x", "", nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
}

func TestClientEmptyBodyLeavesOutZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	var out []string
	require.NoError(t, c.Get(context.Background(), "/api/x", "", &out))
	assert.Nil(t, out)
}

func TestClientReadsPlainTextMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Only pending resignations can be withdrawn", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).Post(context.Background(), "/api/resignation/4/withdraw", "tok", nil, nil)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "Only pending resignations can be withdrawn", MessageOr(err, "fallback"))
}

package holidays

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `{"items":[
 {"summary":"Independence Day","start":{"date":"2024-08-15"}},
 {"summary":"Republic Day","start":{"date":"2024-01-26"}},
 {"summary":"Diwali","start":{"date":"2024-11-01"}},
 {"summary":"Team offsite","start":{"dateTime":"2024-09-05T10:00:00+05:30"}},
 {"summary":"Broken","start":{}}
]}`

func fixedNow() time.Time {
	return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
}

func TestRefreshKeepsUpcomingSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := NewFeed(srv.URL, time.Second)
	f.now = fixedNow

	got := f.Refresh(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, Holiday{Date: "2024-08-15", Name: "Independence Day"}, got[0])
	assert.Equal(t, "2024-09-05", got[1].Date)
	assert.Equal(t, "Diwali", got[2].Name)
}

func TestFailingFeedDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFeed(srv.URL, time.Second)
	f.now = fixedNow

	got := f.Upcoming(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFailedRefreshKeepsLastGoodList(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := NewFeed(srv.URL, time.Second)
	f.now = fixedNow
	require.Len(t, f.Refresh(context.Background()), 3)

	fail.Store(true)
	assert.Len(t, f.Refresh(context.Background()), 3)
	assert.Len(t, f.Upcoming(context.Background()), 3)
}

func TestEmptyURLYieldsEmptyList(t *testing.T) {
	f := NewFeed("", time.Second)
	assert.Empty(t, f.Upcoming(context.Background()))
}

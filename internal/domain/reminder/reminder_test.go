package reminder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/platform/backend"
)

type reminderBackend struct {
	mu       sync.Mutex
	added    []map[string]any
	notified []map[string]any
}

func (b *reminderBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reminders/manager/4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":21,"managerId":4,"text":"Submit timesheets","date":"2024-06-20","time":"09:30","notified":false}]`))
	})
	mux.HandleFunc("GET /api/reminders/employee/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":22,"managerId":4,"employeeId":7,"text":"Submit timesheets","date":"2024-06-20","notified":true}]`))
	})
	mux.HandleFunc("GET /api/manager/4/team", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":7},{"id":8}]`))
	})
	mux.HandleFunc("POST /api/reminders/add", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		b.mu.Lock()
		b.added = append(b.added, body)
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":23,"managerId":4,"text":"Team sync","date":"2024-06-21"}`))
	})
	mux.HandleFunc("POST /api/reminders/notify/4", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		b.mu.Lock()
		b.notified = append(b.notified, body)
		b.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T) (*Service, *reminderBackend) {
	t.Helper()
	fake := &reminderBackend{}
	srv := fake.server(t)
	return NewService(backend.New(srv.URL, time.Second)), fake
}

func TestListsByRole(t *testing.T) {
	svc, _ := newTestService(t)

	mine, err := svc.ForEmployee(context.Background(), "tok", "7")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Notified)

	own, err := svc.ForManager(context.Background(), "tok", "4")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "21", own[0].ID.String())

	_, err = svc.ForEmployee(context.Background(), "tok", "")
	assert.ErrorIs(t, err, ErrNoEmployee)
	_, err = svc.ForManager(context.Background(), "tok", " ")
	assert.ErrorIs(t, err, ErrManagerUnknown)
}

func TestAddValidatesDraft(t *testing.T) {
	svc, fake := newTestService(t)

	_, err := svc.Add(context.Background(), "tok", "4", Draft{Text: "   ", Date: "2024-06-21"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "text", verrs[0].Field())

	_, err = svc.Add(context.Background(), "tok", "4", Draft{Text: "Team sync", Date: "2024-06-21", Time: "25:00"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "time", verrs[0].Field())
	assert.Empty(t, fake.added)

	saved, err := svc.Add(context.Background(), "tok", "4", Draft{Text: " Team sync ", Date: "2024-06-21", Time: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, "23", saved.ID.String())
	require.Len(t, fake.added, 1)
	assert.Equal(t, "Team sync", fake.added[0]["text"])
	assert.EqualValues(t, 4, fake.added[0]["managerId"])
	assert.Equal(t, false, fake.added[0]["notified"])
}

func TestNotifyOnlyTeamMembers(t *testing.T) {
	svc, fake := newTestService(t)

	_, err := svc.Notify(context.Background(), "tok", "4", Notification{ReminderID: "21", EmployeeIDs: []string{"7", "9"}})
	assert.ErrorIs(t, err, ErrNotTeamMember)
	_, err = svc.Notify(context.Background(), "tok", "4", Notification{ReminderID: "99", EmployeeIDs: []string{"7"}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, fake.notified)

	n, err := svc.Notify(context.Background(), "tok", "4", Notification{ReminderID: "21", EmployeeIDs: []string{"7", "8", "7"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, fake.notified, 1)
	assert.Equal(t, []any{float64(7), float64(8)}, fake.notified[0]["employeeIds"])
	sent := fake.notified[0]["reminder"].(map[string]any)
	assert.Equal(t, "Submit timesheets", sent["text"])
}

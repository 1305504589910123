package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/leave"
	"payflow/internal/domain/payroll"
	"payflow/internal/platform/backend"
	"payflow/internal/platform/holidays"
)

type cardObserver struct {
	mu    sync.Mutex
	cards []string
}

func (o *cardObserver) RecordCardFailure(card string) {
	o.mu.Lock()
	o.cards = append(o.cards, card)
	o.mu.Unlock()
}

type staticHolidays []holidays.Holiday

func (h staticHolidays) Upcoming(context.Context) []holidays.Holiday { return h }

func fakeBackend(t *testing.T, failing ...string) *httptest.Server {
	t.Helper()
	fail := map[string]bool{}
	for _, p := range failing {
		fail[p] = true
	}
	routes := map[string]string{
		"/api/employee/count":         `42`,
		"/api/announcements":          `[{"id":1,"message":"Office closed Friday"}]`,
		"/api/leave/today":            `[{"name":"Asha","type":"Casual","from":"2024-06-10","to":"2024-06-11","status":"ACCEPTED"}]`,
		"/api/onboarding/summary":     `[{"fullName":"Ravi","department":"Ops","role":"Analyst","joiningDate":"2024-06-01","managerName":"Meera","status":"Completed"}]`,
		"/api/payroll/summary":        `{"totalPaid":125000.5,"pending":3000,"cycle":"2024-05"}`,
		"/api/employee/gender-stats":  `{"male":20,"female":22}`,
		"/api/employee/leaves/all":    `[{"id":1,"status":"PENDING"},{"id":2,"status":"REJECTED"},{"id":3,"status":"ACCEPTED"}]`,
		"/api/employee/leave/history": `[{"id":3,"fromDate":"2024-03-01","toDate":"2024-03-03","status":"ACCEPTED"}]`,
		"/api/employee/leave/stats":   `{"totalPaidLeaves":12,"usedPaidLeaves":3,"remainingPaidLeaves":9}`,
		"/api/attendance/today":       ``,
		"/api/payment-hold/status/7":  `{"isOnHold":true,"holdReason":"Tax Issues"}`,
		"/api/manager/11/team":        `[{"id":7,"fullName":"Asha"}]`,
		"/api/manager/11/leaves":      `[{"id":9,"status":"PENDING"},{"id":10,"status":"DENIED"}]`,

		"/api/ctc-management/payslip/employee/7": `[{"payslipId":31,"employeeId":7,"month":"5","year":2024}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, obs Observer, failing ...string) *Service {
	srv := fakeBackend(t, failing...)
	client := backend.New(srv.URL, time.Second)
	hol := staticHolidays{{Date: "2099-01-26", Name: "Republic Day"}}
	return NewService(client, leave.NewService(client, time.Minute), payroll.NewService(client), hol,
		WithObserver(obs), WithParallelism(2))
}

func TestHRViewFailedCardDegradesAlone(t *testing.T) {
	obs := &cardObserver{}
	svc := newTestService(t, obs, "/api/announcements")

	view := svc.HR(context.Background(), Viewer{Token: "tok"})
	assert.NotNil(t, view.Announcements)
	assert.Empty(t, view.Announcements)
	assert.Equal(t, []string{"announcements"}, obs.cards)

	assert.Equal(t, 42, view.EmployeeCount)
	require.Len(t, view.OnLeaveToday, 1)
	assert.Equal(t, "Asha", view.OnLeaveToday[0].Name)
	require.Len(t, view.RecentOnboarding, 1)
	assert.Equal(t, "2024-05", view.Payroll.Cycle)
	assert.Equal(t, GenderStats{Male: 20, Female: 22}, view.Gender)
	assert.Equal(t, leave.Counts{Total: 3, Pending: 1, Accepted: 1, Denied: 1}, view.LeaveCounts)
	require.Len(t, view.Holidays, 1)
}

func TestHRViewAllCardsFailing(t *testing.T) {
	obs := &cardObserver{}
	svc := newTestService(t, obs, "/api/employee/count", "/api/announcements", "/api/leave/today",
		"/api/onboarding/summary", "/api/payroll/summary", "/api/employee/gender-stats", "/api/employee/leaves/all")

	view := svc.HR(context.Background(), Viewer{Token: "tok"})
	assert.Zero(t, view.EmployeeCount)
	assert.Equal(t, "N/A", view.Payroll.Cycle)
	assert.Empty(t, view.OnLeaveToday)
	assert.Len(t, obs.cards, 7)
	assert.Len(t, view.Holidays, 1)
}

func TestEmployeeView(t *testing.T) {
	obs := &cardObserver{}
	svc := newTestService(t, obs)

	view := svc.Employee(context.Background(), Viewer{Token: "tok", Email: "asha@payflow.test", EmployeeID: "7"})
	assert.Equal(t, leave.Summary{Total: 12, Used: 1, Remaining: 11}, view.Leave)
	assert.Equal(t, 9, view.LeaveStats.RemainingPaidLeaves)
	assert.Nil(t, view.Attendance)
	require.Len(t, view.Payslips, 1)
	assert.True(t, view.Hold.IsOnHold)
	assert.Empty(t, obs.cards)
}

func TestManagerViewTalliesTeamLeaves(t *testing.T) {
	svc := newTestService(t, &cardObserver{})

	view := svc.Manager(context.Background(), Viewer{Token: "tok", ManagerID: "11"})
	require.Len(t, view.Team, 1)
	assert.Equal(t, leave.Counts{Total: 2, Pending: 1, Denied: 1}, view.LeaveCounts)
}

func TestPostAnnouncementRequiresMessage(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.PostAnnouncement(context.Background(), "tok", "   ")
	assert.ErrorIs(t, err, ErrMessageRequired)
}

func TestMarkAttendanceSendsQuery(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		got = map[string]string{"employeeId": r.URL.Query().Get("employeeId"), "present": r.URL.Query().Get("present")}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 5, "employeeId": 7, "date": "2024-06-10", "present": true})
	}))
	t.Cleanup(srv.Close)
	client := backend.New(srv.URL, time.Second)
	svc := NewService(client, leave.NewService(client, time.Minute), payroll.NewService(client), nil)

	rec, err := svc.MarkAttendance(context.Background(), "tok", "7", true)
	require.NoError(t, err)
	assert.True(t, rec.Present)
	assert.Equal(t, map[string]string{"employeeId": "7", "present": "true"}, got)

	_, err = svc.MarkAttendance(context.Background(), "tok", "", true)
	assert.ErrorIs(t, err, ErrNoEmployee)
}

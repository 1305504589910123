package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"payflow/internal/domain/leave"
	"payflow/internal/domain/payroll"
	"payflow/internal/platform/holidays"
)

var (
	ErrMessageRequired = errors.New("announcement message is required")
	ErrNoEmployee      = errors.New("session has no employee record")
)

type Backend interface {
	Get(ctx context.Context, path, token string, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
}

type LeaveSource interface {
	History(ctx context.Context, a leave.Applicant) ([]leave.Request, error)
	Stats(ctx context.Context, a leave.Applicant) (leave.Stats, error)
	ListAll(ctx context.Context, token string) ([]leave.Request, error)
	ListForManager(ctx context.Context, token, managerID string) ([]leave.Request, error)
	Allotment() int
}

type PayslipSource interface {
	Payslips(ctx context.Context, token, employeeID string) ([]payroll.Payslip, error)
}

type HolidaySource interface {
	Upcoming(ctx context.Context) []holidays.Holiday
}

type Observer interface {
	RecordCardFailure(card string)
}

type Service struct {
	backend  Backend
	leaves   LeaveSource
	payslips PayslipSource
	holidays HolidaySource
	observer Observer
	parallel int
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithParallelism caps how many cards load at once.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallel = n
		}
	}
}

func NewService(b Backend, leaves LeaveSource, payslips PayslipSource, hol HolidaySource, opts ...Option) *Service {
	s := &Service{backend: b, leaves: leaves, payslips: payslips, holidays: hol, parallel: 4}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// card loads one dashboard card. A failure is logged and counted, and leaves
// dst at its empty default so the other cards still render.
func card[T any](ctx context.Context, s *Service, g *errgroup.Group, name string, dst *T, fetch func(context.Context) (T, error)) {
	g.Go(func() error {
		v, err := fetch(ctx)
		if err != nil {
			slog.Warn("dashboard card failed", "card", name, "err", err)
			if s.observer != nil {
				s.observer.RecordCardFailure(name)
			}
			return nil
		}
		*dst = v
		return nil
	})
}

func (s *Service) group() *errgroup.Group {
	g := &errgroup.Group{}
	g.SetLimit(s.parallel)
	return g
}

func (s *Service) holidayCard(ctx context.Context, g *errgroup.Group, dst *[]holidays.Holiday) {
	card(ctx, s, g, "holidays", dst, func(ctx context.Context) ([]holidays.Holiday, error) {
		if s.holidays == nil {
			return []holidays.Holiday{}, nil
		}
		return s.holidays.Upcoming(ctx), nil
	})
}

func getList[T any](s *Service, path, token string) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		out := []T{}
		if err := s.backend.Get(ctx, path, token, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}
}

func (s *Service) HR(ctx context.Context, v Viewer) HRView {
	view := HRView{
		Announcements:    []Announcement{},
		OnLeaveToday:     []OnLeave{},
		RecentOnboarding: []OnboardingEntry{},
		Payroll:          PayrollSummary{Cycle: "N/A"},
		Holidays:         []holidays.Holiday{},
	}
	g := s.group()
	card(ctx, s, g, "employee_count", &view.EmployeeCount, func(ctx context.Context) (int, error) {
		var n int
		err := s.backend.Get(ctx, "/api/employee/count", v.Token, &n)
		return n, err
	})
	card(ctx, s, g, "announcements", &view.Announcements, getList[Announcement](s, "/api/announcements", v.Token))
	card(ctx, s, g, "on_leave_today", &view.OnLeaveToday, getList[OnLeave](s, "/api/leave/today", v.Token))
	card(ctx, s, g, "recent_onboarding", &view.RecentOnboarding, getList[OnboardingEntry](s, "/api/onboarding/summary", v.Token))
	card(ctx, s, g, "payroll_summary", &view.Payroll, func(ctx context.Context) (PayrollSummary, error) {
		var p PayrollSummary
		err := s.backend.Get(ctx, "/api/payroll/summary", v.Token, &p)
		return p, err
	})
	card(ctx, s, g, "gender_stats", &view.Gender, func(ctx context.Context) (GenderStats, error) {
		var gs GenderStats
		err := s.backend.Get(ctx, "/api/employee/gender-stats", v.Token, &gs)
		return gs, err
	})
	card(ctx, s, g, "leave_counts", &view.LeaveCounts, func(ctx context.Context) (leave.Counts, error) {
		all, err := s.leaves.ListAll(ctx, v.Token)
		if err != nil {
			return leave.Counts{}, err
		}
		return leave.Tally(all), nil
	})
	s.holidayCard(ctx, g, &view.Holidays)
	_ = g.Wait()
	return view
}

func (s *Service) Manager(ctx context.Context, v Viewer) ManagerView {
	view := ManagerView{
		Team:          []TeamMember{},
		TeamLeaves:    []leave.Request{},
		Announcements: []Announcement{},
		OnLeaveToday:  []OnLeave{},
		Holidays:      []holidays.Holiday{},
	}
	g := s.group()
	if v.ManagerID != "" {
		card(ctx, s, g, "team", &view.Team, getList[TeamMember](s, "/api/manager/"+url.PathEscape(v.ManagerID)+"/team", v.Token))
		card(ctx, s, g, "team_leaves", &view.TeamLeaves, func(ctx context.Context) ([]leave.Request, error) {
			return s.leaves.ListForManager(ctx, v.Token, v.ManagerID)
		})
	}
	card(ctx, s, g, "announcements", &view.Announcements, getList[Announcement](s, "/api/announcements", v.Token))
	card(ctx, s, g, "on_leave_today", &view.OnLeaveToday, getList[OnLeave](s, "/api/leave/today", v.Token))
	s.holidayCard(ctx, g, &view.Holidays)
	_ = g.Wait()
	view.LeaveCounts = leave.Tally(view.TeamLeaves)
	return view
}

func (s *Service) Employee(ctx context.Context, v Viewer) EmployeeView {
	allotment := s.leaves.Allotment()
	view := EmployeeView{
		Leave:         leave.Summary{Total: allotment, Remaining: allotment},
		LeaveStats:    leave.Stats{TotalPaidLeaves: allotment, RemainingPaidLeaves: allotment},
		Announcements: []Announcement{},
		Payslips:      []payroll.Payslip{},
		Holidays:      []holidays.Holiday{},
	}
	applicant := leave.Applicant{Token: v.Token, Email: v.Email, EmployeeID: v.EmployeeID}
	g := s.group()
	card(ctx, s, g, "leave_summary", &view.Leave, func(ctx context.Context) (leave.Summary, error) {
		requests, err := s.leaves.History(ctx, applicant)
		if err != nil {
			return leave.Summary{}, err
		}
		return leave.Summarize(requests, allotment), nil
	})
	card(ctx, s, g, "leave_stats", &view.LeaveStats, func(ctx context.Context) (leave.Stats, error) {
		return s.leaves.Stats(ctx, applicant)
	})
	card(ctx, s, g, "announcements", &view.Announcements, getList[Announcement](s, "/api/announcements", v.Token))
	if v.EmployeeID != "" {
		card(ctx, s, g, "attendance", &view.Attendance, func(ctx context.Context) (*AttendanceRecord, error) {
			return s.TodayAttendance(ctx, v.Token, v.EmployeeID)
		})
		card(ctx, s, g, "payslips", &view.Payslips, func(ctx context.Context) ([]payroll.Payslip, error) {
			return s.payslips.Payslips(ctx, v.Token, v.EmployeeID)
		})
		card(ctx, s, g, "payment_hold", &view.Hold, func(ctx context.Context) (payroll.HoldStatus, error) {
			var st payroll.HoldStatus
			err := s.backend.Get(ctx, "/api/payment-hold/status/"+url.PathEscape(v.EmployeeID), v.Token, &st)
			return st, err
		})
	}
	s.holidayCard(ctx, g, &view.Holidays)
	_ = g.Wait()
	return view
}

func (s *Service) Announcements(ctx context.Context, token string) ([]Announcement, error) {
	list, err := getList[Announcement](s, "/api/announcements", token)(ctx)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return list, nil
}

func (s *Service) PostAnnouncement(ctx context.Context, token, message string) (Announcement, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Announcement{}, ErrMessageRequired
	}
	var out Announcement
	if err := s.backend.Post(ctx, "/api/announcements", token, map[string]string{"message": message}, &out); err != nil {
		return Announcement{}, fmt.Errorf("post announcement: %w", err)
	}
	if out.Message == "" {
		out.Message = message
	}
	return out, nil
}

func (s *Service) MarkAttendance(ctx context.Context, token, employeeID string, present bool) (AttendanceRecord, error) {
	if strings.TrimSpace(employeeID) == "" {
		return AttendanceRecord{}, ErrNoEmployee
	}
	q := url.Values{}
	q.Set("employeeId", employeeID)
	q.Set("present", strconv.FormatBool(present))
	var out AttendanceRecord
	if err := s.backend.Post(ctx, "/api/attendance/mark?"+q.Encode(), token, nil, &out); err != nil {
		return AttendanceRecord{}, fmt.Errorf("mark attendance: %w", err)
	}
	return out, nil
}

// TodayAttendance returns nil when nothing has been marked yet.
func (s *Service) TodayAttendance(ctx context.Context, token, employeeID string) (*AttendanceRecord, error) {
	var out *AttendanceRecord
	if err := s.backend.Get(ctx, "/api/attendance/today?employeeId="+url.QueryEscape(employeeID), token, &out); err != nil {
		return nil, fmt.Errorf("today attendance: %w", err)
	}
	return out, nil
}

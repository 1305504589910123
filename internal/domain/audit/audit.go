package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ActionHoldPlace       = "payroll.hold.place"
	ActionHoldRelease     = "payroll.hold.release"
	ActionCTCAdd          = "payroll.ctc.add"
	ActionPayslipGenerate = "payroll.payslip.generate"
	ActionLeaveDecide     = "leave.request.decide"
	ActionAnnouncement    = "dashboard.announcement.post"
	ActionOnboard         = "onboarding.employee.submit"

	ActionResignationSubmit   = "resignation.submit"
	ActionResignationWithdraw = "resignation.withdraw"
	ActionResignationDecide   = "resignation.decide"
	ActionReminderAdd         = "reminder.add"
	ActionReminderNotify      = "reminder.notify"
	ActionPayrollSchedule     = "payroll.schedule"
	ActionPayrollRun          = "payroll.run"
	ActionUserAdd             = "admin.user.add"
	ActionUserDisable         = "admin.user.disable"
)

// Event is one privileged action taken through the console.
type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	ActorRole  string          `json:"actorRole"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
	From       time.Time
	To         time.Time
}

func (f Filter) matches(e Event) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.ActorUser != "" && e.ActorID != f.ActorUser {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

type Store interface {
	Insert(ctx context.Context, e Event) error
	Count(ctx context.Context, f Filter) (int, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]Event, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Record stores e with a fresh id and timestamp. after is marshalled as-is.
func (s *Service) Record(ctx context.Context, e Event, after any) error {
	if strings.TrimSpace(e.Action) == "" {
		return fmt.Errorf("audit event has no action")
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		e.After = payload
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	return s.store.Insert(ctx, e)
}

func (s *Service) Count(ctx context.Context, f Filter) (int, error) {
	return s.store.Count(ctx, f)
}

// List returns matching events, newest first.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]Event, error) {
	return s.store.List(ctx, f, limit, offset)
}

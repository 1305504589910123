package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"payflow/internal/platform/backend"
)

var (
	ErrManagerUnknown = errors.New("manager is not known for this session")
	ErrNoEmployee     = errors.New("no employee record is linked to this session")
	ErrNotFound       = errors.New("reminder not found")
	ErrNotTeamMember  = errors.New("employee is not on your team")
)

type Reminder struct {
	ID         backend.ID `json:"id"`
	ManagerID  backend.ID `json:"managerId,omitempty"`
	EmployeeID backend.ID `json:"employeeId,omitempty"`
	Text       string     `json:"text"`
	Date       string     `json:"date"`
	Time       string     `json:"time,omitempty"`
	Notified   bool       `json:"notified"`
}

// Draft is a new reminder as a manager writes it.
type Draft struct {
	Text string `json:"text" validate:"required,max=500"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
}

// Notification fans one of the manager's reminders out to team members.
type Notification struct {
	ReminderID  string   `json:"reminderId" validate:"required,numeric"`
	EmployeeIDs []string `json:"employeeIds" validate:"required,min=1,max=200,dive,numeric"`
}

type Backend interface {
	Get(ctx context.Context, path, token string, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
}

type Service struct {
	backend  Backend
	validate *validator.Validate
}

func NewService(b Backend) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &Service{backend: b, validate: v}
}

func (s *Service) ForEmployee(ctx context.Context, token, employeeID string) ([]Reminder, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, ErrNoEmployee
	}
	out := []Reminder{}
	if err := s.backend.Get(ctx, "/api/reminders/employee/"+url.PathEscape(employeeID), token, &out); err != nil {
		return nil, fmt.Errorf("employee reminders: %w", err)
	}
	return out, nil
}

func (s *Service) ForManager(ctx context.Context, token, managerID string) ([]Reminder, error) {
	if strings.TrimSpace(managerID) == "" {
		return nil, ErrManagerUnknown
	}
	out := []Reminder{}
	if err := s.backend.Get(ctx, "/api/reminders/manager/"+url.PathEscape(managerID), token, &out); err != nil {
		return nil, fmt.Errorf("manager reminders: %w", err)
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, token, managerID string, d Draft) (Reminder, error) {
	if strings.TrimSpace(managerID) == "" {
		return Reminder{}, ErrManagerUnknown
	}
	d.Text = strings.TrimSpace(d.Text)
	if err := s.validate.Struct(d); err != nil {
		return Reminder{}, err
	}
	body := map[string]any{
		"managerId": json.Number(managerID),
		"text":      d.Text,
		"date":      d.Date,
		"time":      d.Time,
		"notified":  false,
	}
	var saved Reminder
	if err := s.backend.Post(ctx, "/api/reminders/add", token, body, &saved); err != nil {
		return Reminder{}, fmt.Errorf("add reminder: %w", err)
	}
	return saved, nil
}

// Notify sends the reminder to each listed employee and returns how many
// copies were requested. Every recipient must report to the manager.
func (s *Service) Notify(ctx context.Context, token, managerID string, n Notification) (int, error) {
	if strings.TrimSpace(managerID) == "" {
		return 0, ErrManagerUnknown
	}
	if err := s.validate.Struct(n); err != nil {
		return 0, err
	}
	own, err := s.ForManager(ctx, token, managerID)
	if err != nil {
		return 0, err
	}
	var target *Reminder
	for i := range own {
		if own[i].ID.String() == n.ReminderID {
			target = &own[i]
			break
		}
	}
	if target == nil {
		return 0, ErrNotFound
	}

	team, err := s.team(ctx, token, managerID)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(n.EmployeeIDs))
	ids := make([]json.Number, 0, len(n.EmployeeIDs))
	for _, id := range n.EmployeeIDs {
		if _, ok := team[id]; !ok {
			return 0, fmt.Errorf("%w: %s", ErrNotTeamMember, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, json.Number(id))
	}

	body := map[string]any{
		"employeeIds": ids,
		"reminder": map[string]any{
			"id":        json.Number(target.ID.String()),
			"managerId": json.Number(managerID),
			"text":      target.Text,
			"date":      target.Date,
			"time":      target.Time,
		},
	}
	if err := s.backend.Post(ctx, "/api/reminders/notify/"+url.PathEscape(managerID), token, body, nil); err != nil {
		return 0, fmt.Errorf("notify reminder: %w", err)
	}
	return len(ids), nil
}

func (s *Service) team(ctx context.Context, token, managerID string) (map[string]struct{}, error) {
	var members []struct {
		ID backend.ID `json:"id"`
	}
	if err := s.backend.Get(ctx, "/api/manager/"+url.PathEscape(managerID)+"/team", token, &members); err != nil {
		return nil, fmt.Errorf("team members: %w", err)
	}
	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m.ID.String()] = struct{}{}
	}
	return ids, nil
}

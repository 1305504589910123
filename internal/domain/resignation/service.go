package resignation

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"payflow/internal/domain/access"
	"payflow/internal/domain/leave"
	"payflow/internal/platform/refresh"
)

type Backend interface {
	Get(ctx context.Context, path, token string, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
}

type Service struct {
	backend Backend
	history *refresh.Cache[[]Resignation]
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(b Backend, historyTTL time.Duration) *Service {
	return &Service{
		backend:  b,
		history:  refresh.New[[]Resignation](historyTTL),
		now:      time.Now,
		inFlight: map[string]struct{}{},
	}
}

// History returns the applicant's resignations, newest first as the backend orders them.
func (s *Service) History(ctx context.Context, a Applicant) ([]Resignation, error) {
	if a.Email == "" {
		return nil, ErrNoEmployee
	}
	return s.history.Get(ctx, a.Email, func(ctx context.Context) ([]Resignation, error) {
		out := []Resignation{}
		if err := s.backend.Get(ctx, "/api/resignation/history?email="+url.QueryEscape(a.Email), a.Token, &out); err != nil {
			return nil, fmt.Errorf("resignation history: %w", err)
		}
		return out, nil
	})
}

// Submit files a resignation and returns the refreshed history. Only one
// submit or withdraw per applicant runs at a time.
func (s *Service) Submit(ctx context.Context, a Applicant, form Form) ([]Resignation, error) {
	if a.Email == "" {
		return nil, ErrNoEmployee
	}
	if !s.begin(a.Email) {
		return nil, ErrSubmissionInProgress
	}
	defer s.end(a.Email)

	history, err := s.History(ctx, a)
	if err != nil {
		return nil, err
	}
	reason, err := ValidateSubmission(history, form, leave.DateOf(s.now()))
	if err != nil {
		return history, err
	}
	body := map[string]string{
		"employeeEmail":           a.Email,
		"requestedLastWorkingDay": form.LastWorkingDay.String(),
		"reason":                  reason,
	}
	if err := s.backend.Post(ctx, "/api/resignation/submit", a.Token, body, nil); err != nil {
		return history, fmt.Errorf("submit resignation: %w", err)
	}
	return s.refetch(ctx, a, history), nil
}

// Withdraw takes back one of the applicant's own pending resignations.
func (s *Service) Withdraw(ctx context.Context, a Applicant, id string) ([]Resignation, error) {
	if a.Email == "" {
		return nil, ErrNoEmployee
	}
	if !s.begin(a.Email) {
		return nil, ErrSubmissionInProgress
	}
	defer s.end(a.Email)

	history, err := s.History(ctx, a)
	if err != nil {
		return nil, err
	}
	target, ok := find(history, id)
	if !ok {
		return history, ErrNotFound
	}
	if target.Status != StatusPending {
		return history, ErrNotPending
	}
	path := "/api/resignation/" + url.PathEscape(id) + "/withdraw?employeeEmail=" + url.QueryEscape(a.Email)
	if err := s.backend.Post(ctx, path, a.Token, nil, nil); err != nil {
		return history, fmt.Errorf("withdraw resignation: %w", err)
	}
	return s.refetch(ctx, a, history), nil
}

func (s *Service) refetch(ctx context.Context, a Applicant, previous []Resignation) []Resignation {
	s.history.Invalidate(a.Email)
	refreshed, err := s.History(ctx, a)
	if err != nil {
		return previous
	}
	return refreshed
}

// Requests lists what the reviewer may decide on: every resignation for HR
// and admin, the team's for a manager.
func (s *Service) Requests(ctx context.Context, rv Reviewer) ([]Resignation, error) {
	out := []Resignation{}
	if rv.Role == access.RoleManager {
		if strings.TrimSpace(rv.ManagerID) == "" {
			return nil, ErrReviewerUnknown
		}
		if err := s.backend.Get(ctx, "/api/resignation/manager/"+url.PathEscape(rv.ManagerID), rv.Token, &out); err != nil {
			return nil, fmt.Errorf("team resignations: %w", err)
		}
		return out, nil
	}
	if err := s.backend.Get(ctx, "/api/resignation/all", rv.Token, &out); err != nil {
		return nil, fmt.Errorf("list resignations: %w", err)
	}
	return out, nil
}

// Act approves or rejects a pending resignation visible to the reviewer.
func (s *Service) Act(ctx context.Context, rv Reviewer, id string, d Decision) error {
	if _, ok := ParseAction(string(d.Action)); !ok {
		return ErrInvalidAction
	}
	visible, err := s.Requests(ctx, rv)
	if err != nil {
		return err
	}
	target, ok := find(visible, id)
	if !ok {
		return ErrNotFound
	}
	if target.Status != StatusPending {
		return ErrNotPending
	}
	d, err = ValidateDecision(target, d)
	if err != nil {
		return err
	}
	processedBy := rv.Email
	if processedBy == "" {
		processedBy = string(rv.Role)
	}
	body := map[string]any{
		"action":      d.Action,
		"comments":    d.Comments,
		"processedBy": processedBy,
	}
	if !d.ApprovedLastWorkingDay.IsZero() {
		body["approvedLastWorkingDay"] = d.ApprovedLastWorkingDay.String()
	}
	if err := s.backend.Post(ctx, "/api/resignation/"+url.PathEscape(id)+"/action", rv.Token, body, nil); err != nil {
		return fmt.Errorf("resignation action: %w", err)
	}
	s.history.InvalidateAll()
	return nil
}

func (s *Service) Stats(ctx context.Context, token string) (Stats, error) {
	var stats Stats
	if err := s.backend.Get(ctx, "/api/resignation/stats", token, &stats); err != nil {
		return Stats{}, fmt.Errorf("resignation stats: %w", err)
	}
	return stats, nil
}

func (s *Service) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Service) end(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

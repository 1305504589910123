package leave

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"payflow/internal/domain/access"
	"payflow/internal/platform/refresh"
)

type Backend interface {
	Get(ctx context.Context, path, token string, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
}

type Observer interface {
	RecordLeaveSubmission(outcome string)
}

type Service struct {
	backend   Backend
	history   *refresh.Cache[[]Request]
	allotment int
	observer  Observer

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

func WithAllotment(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.allotment = days
		}
	}
}

func NewService(b Backend, historyTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		backend:   b,
		history:   refresh.New[[]Request](historyTTL),
		allotment: AnnualAllotment,
		inFlight:  map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Allotment() int {
	return s.allotment
}

// History returns the applicant's requests, served from cache until a command invalidates it.
func (s *Service) History(ctx context.Context, a Applicant) ([]Request, error) {
	if a.Email == "" {
		return nil, ErrNoEmployee
	}
	return s.history.Get(ctx, a.Email, func(ctx context.Context) ([]Request, error) {
		var out []Request
		if err := s.backend.Get(ctx, "/api/employee/leave/history?email="+url.QueryEscape(a.Email), a.Token, &out); err != nil {
			return nil, fmt.Errorf("leave history: %w", err)
		}
		if out == nil {
			out = []Request{}
		}
		return out, nil
	})
}

func (s *Service) Stats(ctx context.Context, a Applicant) (Stats, error) {
	stats := Stats{TotalPaidLeaves: s.allotment, RemainingPaidLeaves: s.allotment}
	if a.Email == "" {
		return stats, ErrNoEmployee
	}
	if err := s.backend.Get(ctx, "/api/employee/leave/stats?email="+url.QueryEscape(a.Email), a.Token, &stats); err != nil {
		return stats, fmt.Errorf("leave stats: %w", err)
	}
	return stats, nil
}

func (s *Service) ListAll(ctx context.Context, token string) ([]Request, error) {
	out := []Request{}
	if err := s.backend.Get(ctx, "/api/employee/leaves/all", token, &out); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return out, nil
}

func (s *Service) ListForManager(ctx context.Context, token, managerID string) ([]Request, error) {
	out := []Request{}
	if err := s.backend.Get(ctx, "/api/manager/"+url.PathEscape(managerID)+"/leaves", token, &out); err != nil {
		return nil, fmt.Errorf("list team leave requests: %w", err)
	}
	return out, nil
}

// Requests lists what the reviewer may decide on: every request for HR and
// admin, the team's requests for a manager.
func (s *Service) Requests(ctx context.Context, rv Reviewer) ([]Request, error) {
	if rv.Role == access.RoleManager {
		if strings.TrimSpace(rv.ManagerID) == "" {
			return nil, ErrReviewerUnknown
		}
		return s.ListForManager(ctx, rv.Token, rv.ManagerID)
	}
	return s.ListAll(ctx, rv.Token)
}

// Act records an HR or manager decision on a pending request and
// invalidates cached histories.
func (s *Service) Act(ctx context.Context, rv Reviewer, requestID string, d Decision) error {
	d, err := ValidateDecision(d)
	if err != nil {
		return err
	}
	requests, err := s.Requests(ctx, rv)
	if err != nil {
		return err
	}
	var target *Request
	for i := range requests {
		if requests[i].ID.String() == requestID {
			target = &requests[i]
			break
		}
	}
	if target == nil {
		return ErrRequestNotFound
	}
	if target.Status.Terminal() {
		return ErrAlreadyDecided
	}
	if err := s.backend.Post(ctx, "/api/employee/leave/"+url.PathEscape(requestID)+"/action", rv.Token, d, nil); err != nil {
		return fmt.Errorf("leave action: %w", err)
	}
	s.history.InvalidateAll()
	return nil
}

func (s *Service) apply(ctx context.Context, a Applicant, form Form) error {
	payload := map[string]string{
		"email":     a.Email,
		"startDate": form.From.String(),
		"endDate":   form.To.String(),
		"reason":    form.Reason,
	}
	return s.backend.Post(ctx, "/api/leave/apply", a.Token, payload, nil)
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

func (s *Service) record(outcome Outcome) {
	if s.observer != nil {
		s.observer.RecordLeaveSubmission(string(outcome))
	}
}

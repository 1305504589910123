package payroll

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"payflow/internal/domain/access"
)

// ResolveHoldReason returns the reason text to record. Catalog reasons are
// matched exactly; the Custom category takes the free-text reason.
func ResolveHoldReason(req HoldRequest) (string, error) {
	if req.Category == CustomReasonCategory {
		custom := strings.TrimSpace(req.CustomReason)
		if custom == "" {
			custom = strings.TrimSpace(req.Reason)
		}
		if custom == "" {
			return "", ErrHoldReasonRequired
		}
		return custom, nil
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return "", ErrHoldReasonRequired
	}
	for _, cat := range HoldReasons {
		if req.Category != "" && cat.Name != req.Category {
			continue
		}
		for _, r := range cat.Reasons {
			if r == reason {
				return reason, nil
			}
		}
	}
	return "", ErrUnknownHoldReason
}

func checkActor(a Actor) error {
	if strings.TrimSpace(a.UserID) == "" || strings.TrimSpace(a.Role) == "" {
		return ErrActorUnknown
	}
	if a.Role == string(access.RoleManager) && strings.TrimSpace(a.ManagerID) == "" {
		return ErrActorUnknown
	}
	return nil
}

func (s *Service) team(ctx context.Context, token string, a Actor) (map[string]struct{}, error) {
	var members []Employee
	if err := s.backend.Get(ctx, "/api/manager/"+url.PathEscape(a.ManagerID)+"/team", token, &members); err != nil {
		return nil, fmt.Errorf("team members: %w", err)
	}
	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m.ID.String()] = struct{}{}
	}
	return ids, nil
}

// authorize checks the actor and, for managers, that the employee reports to them.
func (s *Service) authorize(ctx context.Context, token string, a Actor, employeeID string) error {
	if err := checkActor(a); err != nil {
		return err
	}
	if strings.TrimSpace(employeeID) == "" {
		return ErrEmployeeRequired
	}
	if a.Role != string(access.RoleManager) {
		return nil
	}
	ids, err := s.team(ctx, token, a)
	if err != nil {
		return err
	}
	if _, ok := ids[employeeID]; !ok {
		return ErrNotTeamMember
	}
	return nil
}

func (s *Service) PlaceHold(ctx context.Context, token string, a Actor, req HoldRequest) error {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	if err := s.authorize(ctx, token, a, req.EmployeeID); err != nil {
		return err
	}
	reason, err := ResolveHoldReason(req)
	if err != nil {
		return err
	}
	now := s.now()
	if req.Month == 0 {
		req.Month = int(now.Month())
	}
	if req.Year == 0 {
		req.Year = now.Year()
	}
	body := map[string]any{
		"employeeId":     req.EmployeeID,
		"holdReason":     reason,
		"holdByUserId":   a.UserID,
		"holdByUserRole": a.Role,
		"holdMonth":      req.Month,
		"holdYear":       req.Year,
	}
	if err := s.backend.Post(ctx, "/api/payment-hold/place", token, body, nil); err != nil {
		return fmt.Errorf("place hold: %w", err)
	}
	return nil
}

func (s *Service) ReleaseHold(ctx context.Context, token string, a Actor, employeeID string) error {
	employeeID = strings.TrimSpace(employeeID)
	if err := s.authorize(ctx, token, a, employeeID); err != nil {
		return err
	}
	body := map[string]any{
		"employeeId":         employeeID,
		"releasedByUserId":   a.UserID,
		"releasedByUserRole": a.Role,
	}
	if err := s.backend.Post(ctx, "/api/payment-hold/release", token, body, nil); err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	return nil
}

func (s *Service) HoldStatus(ctx context.Context, token string, a Actor, employeeID string) (HoldStatus, error) {
	employeeID = strings.TrimSpace(employeeID)
	if err := s.authorize(ctx, token, a, employeeID); err != nil {
		return HoldStatus{}, err
	}
	var st HoldStatus
	if err := s.backend.Get(ctx, "/api/payment-hold/status/"+url.PathEscape(employeeID), token, &st); err != nil {
		return HoldStatus{}, fmt.Errorf("hold status: %w", err)
	}
	return st, nil
}

// ListHolds returns held payslips; managers only see their own team.
func (s *Service) ListHolds(ctx context.Context, token string, a Actor) ([]HeldPayslip, error) {
	if err := checkActor(a); err != nil {
		return nil, err
	}
	held := []HeldPayslip{}
	if err := s.backend.Get(ctx, "/api/payment-hold/list", token, &held); err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	if a.Role != string(access.RoleManager) {
		return held, nil
	}
	ids, err := s.team(ctx, token, a)
	if err != nil {
		return nil, err
	}
	out := held[:0]
	for _, h := range held {
		if _, ok := ids[h.EmployeeID.String()]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

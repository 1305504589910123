package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"payflow/internal/platform/backend"
)

const ScheduleStatusScheduled = "Scheduled"

// ScheduleRequest books a salary payment for one employee and pay cycle.
type ScheduleRequest struct {
	EmployeeID  backend.ID `json:"employeeId" validate:"required,numeric"`
	BaseSalary  float64    `json:"baseSalary" validate:"gt=0"`
	Cycle       string     `json:"cycle" validate:"required,datetime=2006-01"`
	PaymentDate string     `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	Status      string     `json:"status,omitempty"`
}

// ScheduledPayroll is the backend's record of a scheduled payment, with any
// deduction for leave taken beyond the annual allotment.
type ScheduledPayroll struct {
	ID              backend.ID `json:"id"`
	EmployeeID      backend.ID `json:"employeeId"`
	Department      string     `json:"department,omitempty"`
	Cycle           string     `json:"cycle"`
	PaymentDate     string     `json:"paymentDate"`
	BaseSalary      *float64   `json:"baseSalary"`
	NetSalary       *float64   `json:"netSalary"`
	DeductionAmount *float64   `json:"deductionAmount"`
	NumberOfLeaves  int        `json:"numberOfLeaves"`
	Status          string     `json:"status"`
}

// RunRequest triggers bulk payslip generation. A blank month means the
// current one; a blank year with a month means this year.
type RunRequest struct {
	Month string `json:"month,omitempty" validate:"omitempty,oneof=January February March April May June July August September October November December"`
	Year  int    `json:"year,omitempty" validate:"omitempty,gte=2000,lte=2100"`
}

type RunResult struct {
	Message           string `json:"message"`
	Month             string `json:"month"`
	Year              int    `json:"year"`
	PayslipsGenerated int    `json:"payslipsGenerated"`
	GeneratedBy       string `json:"generatedBy"`
}

type SchedulerStatus struct {
	SchedulerEnabled      bool   `json:"schedulerEnabled"`
	Description           string `json:"description"`
	CronExpression        string `json:"cronExpression"`
	CurrentDate           string `json:"currentDate"`
	LastDayOfCurrentMonth string `json:"lastDayOfCurrentMonth"`
}

// SchedulePayroll books a payment. Managers may only schedule for their team
// and the payment date may not be in the past.
func (s *Service) SchedulePayroll(ctx context.Context, token string, a Actor, req ScheduleRequest) (ScheduledPayroll, error) {
	req.EmployeeID = backend.ID(strings.TrimSpace(req.EmployeeID.String()))
	if err := s.validate.Struct(req); err != nil {
		return ScheduledPayroll{}, err
	}
	paymentDate, _ := time.Parse("2006-01-02", req.PaymentDate)
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if paymentDate.Before(today) {
		return ScheduledPayroll{}, ErrPaymentDateInPast
	}
	if err := s.authorize(ctx, token, a, req.EmployeeID.String()); err != nil {
		return ScheduledPayroll{}, err
	}
	if req.Status == "" {
		req.Status = ScheduleStatusScheduled
	}

	body := map[string]any{
		"employeeId":  json.Number(req.EmployeeID.String()),
		"baseSalary":  req.BaseSalary,
		"cycle":       req.Cycle,
		"paymentDate": req.PaymentDate,
		"status":      req.Status,
	}
	var saved ScheduledPayroll
	if err := s.backend.Post(ctx, "/api/payrolls/schedule", token, body, &saved); err != nil {
		return ScheduledPayroll{}, fmt.Errorf("schedule payroll: %w", err)
	}
	return saved, nil
}

// RunPayroll generates payslips for every employee for one month.
func (s *Service) RunPayroll(ctx context.Context, token, generatedBy string, req RunRequest) (RunResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return RunResult{}, err
	}
	if strings.TrimSpace(generatedBy) == "" {
		return RunResult{}, ErrActorUnknown
	}
	q := url.Values{"generatedBy": {generatedBy}}
	path := "/api/payroll/scheduler/generate-current-month"
	if req.Month != "" {
		if req.Year == 0 {
			req.Year = s.now().Year()
		}
		q.Set("month", req.Month)
		q.Set("year", strconv.Itoa(req.Year))
		path = "/api/payroll/scheduler/generate-specific"
	}
	var out RunResult
	if err := s.backend.Post(ctx, path+"?"+q.Encode(), token, nil, &out); err != nil {
		return RunResult{}, fmt.Errorf("run payroll: %w", err)
	}
	return out, nil
}

func (s *Service) SchedulerStatus(ctx context.Context, token string) (SchedulerStatus, error) {
	var out SchedulerStatus
	if err := s.backend.Get(ctx, "/api/payroll/scheduler/status", token, &out); err != nil {
		return SchedulerStatus{}, fmt.Errorf("scheduler status: %w", err)
	}
	return out, nil
}

package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Backend interface {
	Get(ctx context.Context, path, token string, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
}

type Service struct {
	backend  Backend
	validate *validator.Validate
	now      func() time.Time
}

func NewService(b Backend) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &Service{backend: b, validate: v, now: time.Now}
}

func (s *Service) AddCTC(ctx context.Context, token string, c CTC) (CTC, error) {
	c, err := c.Normalize()
	if err != nil {
		return c, err
	}
	var saved CTC
	if err := s.backend.Post(ctx, "/api/ctc-management/ctc/add", token, c, &saved); err != nil {
		return c, fmt.Errorf("add ctc: %w", err)
	}
	if saved.EmployeeID == "" {
		return c, nil
	}
	return saved, nil
}

func (s *Service) CTCHistory(ctx context.Context, token, employeeID string) ([]CTC, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, ErrEmployeeRequired
	}
	out := []CTC{}
	if err := s.backend.Get(ctx, "/api/ctc-management/ctc/history/"+url.PathEscape(employeeID), token, &out); err != nil {
		return nil, fmt.Errorf("ctc history: %w", err)
	}
	return out, nil
}

func (s *Service) GeneratePayslip(ctx context.Context, token string, req GenerateRequest) (Payslip, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.Month = strings.TrimSpace(req.Month)
	if err := s.validate.Struct(req); err != nil {
		return Payslip{}, err
	}
	var resp struct {
		Message string  `json:"message"`
		Payslip Payslip `json:"payslip"`
	}
	if err := s.backend.Post(ctx, "/api/ctc-management/payslip/generate", token, req, &resp); err != nil {
		return Payslip{}, fmt.Errorf("generate payslip: %w", err)
	}
	return resp.Payslip, nil
}

func (s *Service) Payslips(ctx context.Context, token, employeeID string) ([]Payslip, error) {
	if strings.TrimSpace(employeeID) == "" {
		return nil, ErrEmployeeRequired
	}
	out := []Payslip{}
	if err := s.backend.Get(ctx, "/api/ctc-management/payslip/employee/"+url.PathEscape(employeeID), token, &out); err != nil {
		return nil, fmt.Errorf("list payslips: %w", err)
	}
	return out, nil
}

// Document gathers the payslip, employee and bank details for rendering.
// Missing bank details render as dashes; a failed payslip fetch is ErrDownloadFailed.
func (s *Service) Document(ctx context.Context, token, payslipID string) (PayslipDocument, error) {
	var resp struct {
		Payslip  *Payslip `json:"payslip"`
		Employee Employee `json:"employee"`
	}
	if err := s.backend.Get(ctx, "/api/ctc-management/payslip/download/"+url.PathEscape(payslipID), token, &resp); err != nil {
		return PayslipDocument{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	if resp.Payslip == nil {
		return PayslipDocument{}, ErrDownloadFailed
	}
	doc := PayslipDocument{Payslip: *resp.Payslip, Employee: resp.Employee}
	if doc.Employee.ID == "" {
		doc.Employee.ID = doc.Payslip.EmployeeID
	}

	if id := doc.Employee.ID.String(); id != "" {
		if err := s.backend.Get(ctx, "/api/employee/"+url.PathEscape(id)+"/bank-details", token, &doc.Bank); err != nil {
			slog.Warn("bank details fetch failed", "employee_id", id, "err", err)
			doc.Bank = BankDetails{}
		}
	}
	return doc, nil
}

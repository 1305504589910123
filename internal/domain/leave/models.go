package leave

import (
	"encoding/json"
	"strings"

	"payflow/internal/domain/access"
	"payflow/internal/platform/backend"
)

// AnnualAllotment is the number of leave days an employee may take per year.
const AnnualAllotment = 12

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDenied   Status = "DENIED"

	// legacyStatusRejected is written by older backend paths and means DENIED.
	legacyStatusRejected = "REJECTED"
)

func NormalizeStatus(raw string) Status {
	status := strings.ToUpper(strings.TrimSpace(raw))
	if status == legacyStatusRejected {
		return StatusDenied
	}
	return Status(status)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDenied
}

type Request struct {
	ID           backend.ID `json:"id"`
	EmployeeID   backend.ID `json:"employeeId"`
	ManagerID    backend.ID `json:"managerId,omitempty"`
	EmployeeName string     `json:"employeeName,omitempty"`
	Type         string     `json:"type,omitempty"`
	FromDate     Date       `json:"fromDate"`
	ToDate       Date       `json:"toDate"`
	Reason       string     `json:"reason"`
	Status       Status     `json:"status"`
	DenialReason string     `json:"denialReason,omitempty"`
	IsPaid       *bool      `json:"isPaid,omitempty"`
	LeaveDays    int        `json:"leaveDays,omitempty"`
	PaidDays     int        `json:"paidDays,omitempty"`
	UnpaidDays   int        `json:"unpaidDays,omitempty"`
}

// Form is what an employee fills in to request leave.
type Form struct {
	From   Date   `json:"startDate"`
	To     Date   `json:"endDate"`
	Reason string `json:"reason"`
}

type Summary struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Stats is the backend's paid/unpaid breakdown for an employee.
type Stats struct {
	TotalPaidLeaves       int `json:"totalPaidLeaves"`
	UsedPaidLeaves        int `json:"usedPaidLeaves"`
	RemainingPaidLeaves   int `json:"remainingPaidLeaves"`
	UsedUnpaidLeaves      int `json:"usedUnpaidLeaves"`
	UnpaidLeavesThisMonth int `json:"unpaidLeavesThisMonth"`
}

type Counts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Denied   int `json:"denied"`
}

type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionDeny   Action = "DENY"
)

func ParseAction(raw string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(raw))) {
	case ActionAccept:
		return ActionAccept, true
	case ActionDeny:
		return ActionDeny, true
	}
	return "", false
}

// Decision is an HR or manager verdict on a pending request.
type Decision struct {
	Action Action `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// Reviewer is the HR, admin or manager deciding on requests.
type Reviewer struct {
	Token     string
	Role      access.Role
	ManagerID string
}

// Applicant identifies the employee a workflow acts for.
type Applicant struct {
	Token      string
	Email      string
	EmployeeID string
}

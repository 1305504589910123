package resignation

import (
	"encoding/json"
	"strings"

	"payflow/internal/domain/access"
	"payflow/internal/domain/leave"
	"payflow/internal/platform/backend"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusWithdrawn Status = "WITHDRAWN"
)

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Status(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// Active reports whether the resignation still blocks a new one.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// OtherReason is the catalog entry that takes a free-text explanation.
const OtherReason = "Other"

// Reasons is the list offered on the resignation form.
var Reasons = []string{
	"Better Career Opportunity",
	"Higher Salary Offer",
	"Work-Life Balance",
	"Personal Reasons",
	"Health Issues",
	"Relocation",
	"Career Change",
	"Further Studies",
	"Family Commitments",
	"Retirement",
	OtherReason,
}

const (
	minCustomReason = 10
	maxCustomReason = 500
)

type Resignation struct {
	ID                      backend.ID `json:"id"`
	EmployeeID              backend.ID `json:"employeeId"`
	ManagerID               backend.ID `json:"managerId,omitempty"`
	EmployeeName            string     `json:"employeeName,omitempty"`
	EmployeeEmail           string     `json:"employeeEmail"`
	Department              string     `json:"department,omitempty"`
	Position                string     `json:"position,omitempty"`
	ResignationDate         leave.Date `json:"resignationDate"`
	RequestedLastWorkingDay leave.Date `json:"requestedLastWorkingDay"`
	ApprovedLastWorkingDay  leave.Date `json:"approvedLastWorkingDay"`
	NoticePeriodDays        int        `json:"noticePeriodDays,omitempty"`
	ActualNoticeDays        int        `json:"actualNoticeDays,omitempty"`
	Status                  Status     `json:"status"`
	Reason                  string     `json:"reason"`
	ManagerComments         string     `json:"managerComments,omitempty"`
	HRComments              string     `json:"hrComments,omitempty"`
	ProcessedBy             string     `json:"processedBy,omitempty"`
	ExitInterviewCompleted  bool       `json:"exitInterviewCompleted"`
	HandoverCompleted       bool       `json:"handoverCompleted"`
	AssetsReturned          bool       `json:"assetsReturned"`
}

// Form is what an employee fills in to resign.
type Form struct {
	LastWorkingDay leave.Date `json:"requestedLastWorkingDay"`
	Reason         string     `json:"reason"`
	CustomReason   string     `json:"customReason,omitempty"`
}

type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Withdrawn int `json:"withdrawn"`
}

// Stats is the backend's organisation-wide resignation summary.
type Stats struct {
	TotalResignations     int `json:"totalResignations"`
	PendingResignations   int `json:"pendingResignations"`
	ApprovedResignations  int `json:"approvedResignations"`
	RejectedResignations  int `json:"rejectedResignations"`
	WithdrawnResignations int `json:"withdrawnResignations"`
	ResignationsThisMonth int `json:"resignationsThisMonth"`
	ResignationsLastMonth int `json:"resignationsLastMonth"`
	OverdueResignations   int `json:"overdueResignations"`
	ExitInterviewsPending int `json:"exitInterviewsPending"`
	HandoversPending      int `json:"handoversPending"`
}

type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// ParseAction also accepts the past-tense spellings older screens send.
func ParseAction(raw string) (Action, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "APPROVE", "APPROVED":
		return ActionApprove, true
	case "REJECT", "REJECTED":
		return ActionReject, true
	}
	return "", false
}

type Decision struct {
	Action                 Action     `json:"action"`
	Comments               string     `json:"comments,omitempty"`
	ApprovedLastWorkingDay leave.Date `json:"approvedLastWorkingDay"`
}

type Applicant struct {
	Token string
	Email string
}

// Reviewer is the HR, admin or manager deciding on resignations.
type Reviewer struct {
	Token     string
	Email     string
	Role      access.Role
	ManagerID string
}

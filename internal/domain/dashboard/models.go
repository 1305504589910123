package dashboard

import (
	"payflow/internal/domain/leave"
	"payflow/internal/domain/payroll"
	"payflow/internal/platform/backend"
	"payflow/internal/platform/holidays"
)

type Announcement struct {
	ID        backend.ID `json:"id"`
	Message   string     `json:"message"`
	Date      string     `json:"date,omitempty"`
	Time      string     `json:"time,omitempty"`
	CreatedAt string     `json:"createdAt,omitempty"`
}

type OnLeave struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

type OnboardingEntry struct {
	FullName    string `json:"fullName"`
	Department  string `json:"department"`
	Role        string `json:"role"`
	JoiningDate string `json:"joiningDate"`
	ManagerName string `json:"managerName"`
	Status      string `json:"status"`
}

type PayrollSummary struct {
	TotalPaid float64 `json:"totalPaid"`
	Pending   float64 `json:"pending"`
	Cycle     string  `json:"cycle"`
}

type GenderStats struct {
	Male   int `json:"male"`
	Female int `json:"female"`
}

type TeamMember struct {
	ID         backend.ID `json:"id"`
	FullName   string     `json:"fullName"`
	Email      string     `json:"email,omitempty"`
	Department string     `json:"department,omitempty"`
	Position   string     `json:"position,omitempty"`
}

type AttendanceRecord struct {
	ID         backend.ID `json:"id,omitempty"`
	EmployeeID backend.ID `json:"employeeId"`
	Date       string     `json:"date"`
	Present    bool       `json:"present"`
}

// Viewer is the signed-in user a view is assembled for.
type Viewer struct {
	Token      string
	Email      string
	EmployeeID string
	ManagerID  string
}

type HRView struct {
	EmployeeCount    int                `json:"employeeCount"`
	Announcements    []Announcement     `json:"announcements"`
	OnLeaveToday     []OnLeave          `json:"onLeaveToday"`
	RecentOnboarding []OnboardingEntry  `json:"recentOnboarding"`
	Payroll          PayrollSummary     `json:"payroll"`
	Gender           GenderStats        `json:"gender"`
	LeaveCounts      leave.Counts       `json:"leaveCounts"`
	Holidays         []holidays.Holiday `json:"holidays"`
}

type ManagerView struct {
	Team          []TeamMember       `json:"team"`
	TeamLeaves    []leave.Request    `json:"teamLeaves"`
	LeaveCounts   leave.Counts       `json:"leaveCounts"`
	Announcements []Announcement     `json:"announcements"`
	OnLeaveToday  []OnLeave          `json:"onLeaveToday"`
	Holidays      []holidays.Holiday `json:"holidays"`
}

type EmployeeView struct {
	Leave         leave.Summary      `json:"leave"`
	LeaveStats    leave.Stats        `json:"leaveStats"`
	Announcements []Announcement     `json:"announcements"`
	Attendance    *AttendanceRecord  `json:"attendance"`
	Payslips      []payroll.Payslip  `json:"payslips"`
	Hold          payroll.HoldStatus `json:"hold"`
	Holidays      []holidays.Holiday `json:"holidays"`
}

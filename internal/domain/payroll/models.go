package payroll

import (
	"strconv"
	"strings"
	"time"

	"payflow/internal/platform/backend"
)

// Payslip is a generated monthly payslip. Amounts the backend omits stay nil.
type Payslip struct {
	PayslipID       backend.ID `json:"payslipId"`
	EmployeeID      backend.ID `json:"employeeId"`
	Month           string     `json:"month"`
	Year            int        `json:"year"`
	BasicSalary     *float64   `json:"basicSalary"`
	HRA             *float64   `json:"hra"`
	Allowances      *float64   `json:"allowances"`
	Bonuses         *float64   `json:"bonuses"`
	GrossSalary     *float64   `json:"grossSalary"`
	PFDeduction     *float64   `json:"pfDeduction"`
	TaxDeduction    *float64   `json:"taxDeduction"`
	OtherDeductions *float64   `json:"otherDeductions"`
	TotalDeductions *float64   `json:"totalDeductions"`
	Deductions      *float64   `json:"deductions,omitempty"`
	NetPay          *float64   `json:"netPay"`
	WorkingDays     *int       `json:"workingDays"`
	PresentDays     *int       `json:"presentDays"`
	LeaveDays       *int       `json:"leaveDays"`
	GeneratedOn     string     `json:"generatedOn,omitempty"`
	GeneratedBy     string     `json:"generatedBy,omitempty"`
	Status          string     `json:"status,omitempty"`
}

// Period renders the payslip month as "January 2024". Numeric months are accepted.
func (p Payslip) Period() string {
	month := strings.TrimSpace(p.Month)
	if n, err := strconv.Atoi(month); err == nil && n >= 1 && n <= 12 {
		month = time.Month(n).String()
	} else if month != "" {
		month = strings.ToUpper(month[:1]) + strings.ToLower(month[1:])
	}
	if p.Year == 0 {
		return month
	}
	return strings.TrimSpace(month + " " + strconv.Itoa(p.Year))
}

type Employee struct {
	ID          backend.ID `json:"id"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email,omitempty"`
	Department  string     `json:"department,omitempty"`
	Role        string     `json:"role,omitempty"`
	Position    string     `json:"position,omitempty"`
	JoiningDate string     `json:"joiningDate,omitempty"`
	ManagerID   backend.ID `json:"managerId,omitempty"`
}

// Designation prefers the position title over the job role.
func (e Employee) Designation() string {
	if strings.TrimSpace(e.Position) != "" {
		return e.Position
	}
	return e.Role
}

type BankDetails struct {
	UAN       string `json:"uan"`
	PFNo      string `json:"pfNo"`
	ESINo     string `json:"esiNo"`
	Bank      string `json:"bank"`
	AccountNo string `json:"accountNo"`
}

// PayslipDocument is everything the PDF renderer needs.
type PayslipDocument struct {
	Payslip  Payslip
	Employee Employee
	Bank     BankDetails
}

type CTC struct {
	CTCID               backend.ID `json:"ctcId,omitempty"`
	EmployeeID          backend.ID `json:"employeeId"`
	EmployeeName        string     `json:"employeeName,omitempty"`
	EffectiveFrom       string     `json:"effectiveFrom"`
	BasicSalary         float64    `json:"basicSalary"`
	HRA                 float64    `json:"hra"`
	ConveyanceAllowance float64    `json:"conveyanceAllowance"`
	MedicalAllowance    float64    `json:"medicalAllowance"`
	SpecialAllowance    float64    `json:"specialAllowance"`
	PerformanceBonus    float64    `json:"performanceBonus"`
	EmployerPF          float64    `json:"employerPfContribution"`
	Gratuity            float64    `json:"gratuity"`
	AnnualCTC           float64    `json:"annualCtc"`
	Status              string     `json:"status,omitempty"`
	RevisionReason      string     `json:"revisionReason,omitempty"`
	CreatedBy           string     `json:"createdBy,omitempty"`
}

type GenerateRequest struct {
	EmployeeID  string `json:"employeeId" validate:"required"`
	Month       string `json:"month" validate:"required"`
	Year        int    `json:"year" validate:"required,gte=2000,lte=2100"`
	GeneratedBy string `json:"generatedBy,omitempty"`
}

// Actor is the signed-in user a payment-hold command is attributed to.
type Actor struct {
	UserID    string
	Role      string
	ManagerID string
}

type HoldRequest struct {
	EmployeeID   string `json:"employeeId"`
	Category     string `json:"category,omitempty"`
	Reason       string `json:"holdReason"`
	CustomReason string `json:"customReason,omitempty"`
	Month        int    `json:"holdMonth,omitempty" validate:"omitempty,min=1,max=12"`
	Year         int    `json:"holdYear,omitempty" validate:"omitempty,gte=2000,lte=2100"`
}

type HoldStatus struct {
	IsOnHold       bool   `json:"isOnHold"`
	HoldReason     string `json:"holdReason,omitempty"`
	HoldDate       string `json:"holdDate,omitempty"`
	HoldByUserRole string `json:"holdByUserRole,omitempty"`
	Month          string `json:"month,omitempty"`
	Year           int    `json:"year,omitempty"`
}

type HeldPayslip struct {
	PayslipID      backend.ID `json:"payslipId,omitempty"`
	EmployeeID     backend.ID `json:"employeeId"`
	EmployeeName   string     `json:"employeeName,omitempty"`
	HoldReason     string     `json:"holdReason"`
	HoldDate       string     `json:"holdDate,omitempty"`
	HoldByUserRole string     `json:"holdByUserRole,omitempty"`
	Month          string     `json:"month,omitempty"`
	Year           int        `json:"year,omitempty"`
}

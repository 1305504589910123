package payroll

const (
	StatusGenerated  = "GENERATED"
	StatusSent       = "SENT"
	StatusDownloaded = "DOWNLOADED"

	CTCStatusActive = "ACTIVE"

	// CustomReasonCategory lets the actor type a reason that is not in the catalog.
	CustomReasonCategory = "Custom"

	issuerName = "PayFlow Solutions"
)

type ReasonCategory struct {
	Name    string   `json:"name"`
	Reasons []string `json:"reasons"`
}

var HoldReasons = []ReasonCategory{
	{Name: "Administrative", Reasons: []string{"Pending Documentation", "Background Verification", "Compliance Review", "Data Verification"}},
	{Name: "Performance & Disciplinary", Reasons: []string{"Performance Review", "Disciplinary Action", "Attendance Issues", "Policy Violation"}},
	{Name: "Financial & Legal", Reasons: []string{"Legal Issues", "Overpayment Recovery", "Expense Reconciliation", "Tax Issues"}},
	{Name: "Operational", Reasons: []string{"Manager Approval Pending", "HR Review Required", "Technical Issues", "System Migration"}},
	{Name: "Employee-Specific", Reasons: []string{"Resignation Process", "Medical Leave", "Contract Issues", "Training Completion"}},
}

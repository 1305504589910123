package payroll

import "errors"

var (
	ErrActorUnknown       = errors.New("acting user is not known for this session")
	ErrNotTeamMember      = errors.New("employee is not on your team")
	ErrHoldReasonRequired = errors.New("a hold reason is required")
	ErrUnknownHoldReason  = errors.New("hold reason is not in the catalog")
	ErrEmployeeRequired   = errors.New("employee id is required")
	ErrInvalidCTC         = errors.New("CTC components must not be negative")
	ErrDownloadFailed     = errors.New("payslip details unavailable")
	ErrPaymentDateInPast  = errors.New("payment date cannot be in the past")
)

// DownloadFailedNotice is shown when payslip details cannot be fetched.
const DownloadFailedNotice = "Failed to download payslip."

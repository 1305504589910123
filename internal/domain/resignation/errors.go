package resignation

import "errors"

var (
	ErrFieldRequired        = errors.New("last working day and reason are required")
	ErrUnknownReason        = errors.New("reason is not in the list")
	ErrCustomReasonLength   = errors.New("custom reason must be between 10 and 500 characters")
	ErrLastDayTooSoon       = errors.New("last working day must be at least tomorrow")
	ErrActiveResignation    = errors.New("an active resignation request already exists")
	ErrSubmissionInProgress = errors.New("a resignation is already being submitted")
	ErrNoEmployee           = errors.New("session has no employee record")

	ErrNotFound          = errors.New("resignation request not found")
	ErrNotPending        = errors.New("resignation request is no longer pending")
	ErrInvalidAction     = errors.New("action must be APPROVE or REJECT")
	ErrCommentsRequired  = errors.New("comments are required to reject a resignation")
	ErrApprovedDayBefore = errors.New("approved last working day cannot be before the resignation date")
	ErrReviewerUnknown   = errors.New("reviewing manager is not known for this session")
)

package leave

import "errors"

type ErrorKind string

const (
	KindFieldRequired       ErrorKind = "field_required"
	KindNoLeavesRemaining   ErrorKind = "no_leaves_remaining"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindInvalidRange        ErrorKind = "invalid_range"
	KindDateOverlap         ErrorKind = "date_overlap"
)

// ValidationError is a user-correctable problem found before any network call.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches on Kind so callers can test against the sentinels below.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

var (
	ErrFieldRequired       = &ValidationError{Kind: KindFieldRequired, Message: "All fields are required."}
	ErrNoLeavesRemaining   = &ValidationError{Kind: KindNoLeavesRemaining, Message: "You have no leaves remaining."}
	ErrInsufficientBalance = &ValidationError{Kind: KindInsufficientBalance, Message: "Requested days exceed your remaining leave balance."}
	ErrInvalidRange        = &ValidationError{Kind: KindInvalidRange, Message: "End date cannot be before start date."}
	ErrDateOverlap         = &ValidationError{Kind: KindDateOverlap, Message: "The selected dates overlap an existing leave request."}
)

var (
	ErrDenialReasonRequired = errors.New("a reason is required to deny a leave request")
	ErrInvalidAction        = errors.New("action must be ACCEPT or DENY")
	ErrSubmissionInProgress = errors.New("a leave request is already being submitted")
	ErrNoEmployee           = errors.New("session has no employee record")
	ErrReviewerUnknown      = errors.New("reviewing manager is not known for this session")
	ErrRequestNotFound      = errors.New("leave request not found")
	ErrAlreadyDecided       = errors.New("leave request has already been decided")
)

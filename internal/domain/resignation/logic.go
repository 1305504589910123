package resignation

import (
	"slices"
	"strings"
	"unicode/utf8"

	"payflow/internal/domain/leave"
)

// ResolveReason returns the reason to record: a catalog entry, or the custom
// text when Other is chosen.
func ResolveReason(form Form) (string, error) {
	reason := strings.TrimSpace(form.Reason)
	if reason == "" {
		return "", ErrFieldRequired
	}
	if reason == OtherReason {
		custom := strings.TrimSpace(form.CustomReason)
		if custom == "" {
			return "", ErrFieldRequired
		}
		if n := utf8.RuneCountInString(custom); n < minCustomReason || n > maxCustomReason {
			return "", ErrCustomReasonLength
		}
		return custom, nil
	}
	if !slices.Contains(Reasons, reason) {
		return "", ErrUnknownReason
	}
	return reason, nil
}

// ValidateSubmission checks a form against the applicant's history. today is
// the applicant's current calendar day.
func ValidateSubmission(history []Resignation, form Form, today leave.Date) (string, error) {
	if form.LastWorkingDay.IsZero() {
		return "", ErrFieldRequired
	}
	reason, err := ResolveReason(form)
	if err != nil {
		return "", err
	}
	if today.DaysUntil(form.LastWorkingDay) < 1 {
		return "", ErrLastDayTooSoon
	}
	for _, r := range history {
		if r.Status.Active() {
			return "", ErrActiveResignation
		}
	}
	return reason, nil
}

func Tally(resignations []Resignation) Counts {
	c := Counts{Total: len(resignations)}
	for _, r := range resignations {
		switch r.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusRejected:
			c.Rejected++
		case StatusWithdrawn:
			c.Withdrawn++
		}
	}
	return c
}

// ValidateDecision normalizes a verdict against the resignation it applies to.
func ValidateDecision(target Resignation, d Decision) (Decision, error) {
	action, ok := ParseAction(string(d.Action))
	if !ok {
		return d, ErrInvalidAction
	}
	d.Action = action
	d.Comments = strings.TrimSpace(d.Comments)
	switch action {
	case ActionReject:
		if d.Comments == "" {
			return d, ErrCommentsRequired
		}
		d.ApprovedLastWorkingDay = leave.Date{}
	case ActionApprove:
		if d.ApprovedLastWorkingDay.IsZero() {
			d.ApprovedLastWorkingDay = target.RequestedLastWorkingDay
		}
		if !target.ResignationDate.IsZero() && d.ApprovedLastWorkingDay.Before(target.ResignationDate) {
			return d, ErrApprovedDayBefore
		}
	}
	return d, nil
}

func find(resignations []Resignation, id string) (Resignation, bool) {
	for _, r := range resignations {
		if r.ID.String() == id {
			return r, true
		}
	}
	return Resignation{}, false
}

package leave

import (
	"fmt"
	"strings"
)

// ComputeUsed counts accepted requests.
func ComputeUsed(requests []Request) int {
	used := 0
	for _, r := range requests {
		if r.Status == StatusAccepted {
			used++
		}
	}
	return used
}

// ComputeRemaining may go negative; callers clamp for display.
func ComputeRemaining(allotment, used int) int {
	return allotment - used
}

// DaysRequested returns the inclusive day count of [from, to].
func DaysRequested(from, to Date) (int, error) {
	if from.IsZero() || to.IsZero() {
		return 0, ErrFieldRequired
	}
	if to.Before(from) {
		return 0, ErrInvalidRange
	}
	return inclusiveDays(from, to), nil
}

func inclusiveDays(from, to Date) int {
	return from.DaysUntil(to) + 1
}

// HasOverlap reports whether [from, to] shares at least one day with any
// request that has not been denied.
func HasOverlap(requests []Request, from, to Date) bool {
	for _, r := range requests {
		if r.Status == StatusDenied || r.FromDate.IsZero() || r.ToDate.IsZero() {
			continue
		}
		if !from.After(r.ToDate) && !to.Before(r.FromDate) {
			return true
		}
	}
	return false
}

// ValidateSubmission runs the pre-submit checks in priority order and
// returns the first failure as a *ValidationError.
func ValidateSubmission(requests []Request, allotment int, form Form) error {
	if form.From.IsZero() || form.To.IsZero() || strings.TrimSpace(form.Reason) == "" {
		return ErrFieldRequired
	}

	remaining := ComputeRemaining(allotment, ComputeUsed(requests))
	if remaining <= 0 {
		return ErrNoLeavesRemaining
	}

	if days := inclusiveDays(form.From, form.To); days > remaining {
		return &ValidationError{
			Kind:    KindInsufficientBalance,
			Message: fmt.Sprintf("You requested %d days but only %d remain.", days, remaining),
		}
	}

	if form.From.After(form.To) {
		return ErrInvalidRange
	}

	if HasOverlap(requests, form.From, form.To) {
		return ErrDateOverlap
	}
	return nil
}

func Summarize(requests []Request, allotment int) Summary {
	used := ComputeUsed(requests)
	return Summary{
		Total:     allotment,
		Used:      used,
		Remaining: max(ComputeRemaining(allotment, used), 0),
	}
}

// Tally groups requests by canonical status.
func Tally(requests []Request) Counts {
	c := Counts{Total: len(requests)}
	for _, r := range requests {
		switch r.Status {
		case StatusPending:
			c.Pending++
		case StatusAccepted:
			c.Accepted++
		case StatusDenied:
			c.Denied++
		}
	}
	return c
}

// ValidateDecision checks an HR or manager verdict before it is sent.
func ValidateDecision(d Decision) (Decision, error) {
	action, ok := ParseAction(string(d.Action))
	if !ok {
		return d, ErrInvalidAction
	}
	d.Action = action
	d.Reason = strings.TrimSpace(d.Reason)
	if action == ActionDeny && d.Reason == "" {
		return d, ErrDenialReasonRequired
	}
	return d, nil
}

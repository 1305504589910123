package leave

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"payflow/internal/platform/backend"
)

type State string

const (
	StateIdle       State = "IDLE"
	StateSubmitting State = "SUBMITTING"
)

type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeFailed    Outcome = "failed"
	OutcomeBusy      Outcome = "busy"
)

const (
	noticeSubmitted   = "Leave request submitted successfully."
	messageSubmitFail = "Failed to submit leave request."
	messageHistory    = "Could not load your leave history. Please try again."
)

// Result is the visible state after a workflow step.
type Result struct {
	State     State     `json:"state"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	Notice    string    `json:"notice,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	Form      Form      `json:"form"`
	Summary   Summary   `json:"summary"`
	Requests  []Request `json:"requests"`
}

// Workflow drives one employee's leave form: Idle, then Submitting while the
// create call is in flight, then back to Idle with a notice or an error.
type Workflow struct {
	svc       *Service
	applicant Applicant
	state     State
	form      Form
	onState   func(State)
}

func (s *Service) NewWorkflow(a Applicant) *Workflow {
	return &Workflow{svc: s, applicant: a, state: StateIdle}
}

func (w *Workflow) setState(s State) {
	w.state = s
	if w.onState != nil {
		w.onState(s)
	}
}

// Load returns the current history without submitting anything.
func (w *Workflow) Load(ctx context.Context) Result {
	requests, err := w.svc.History(ctx, w.applicant)
	if err != nil {
		slog.Warn("leave history load failed", "email", w.applicant.Email, "err", err)
		return w.result(nil, Result{Outcome: OutcomeFailed, Error: messageHistory})
	}
	return w.result(requests, Result{})
}

// Submit validates against fresh history and creates the request. The
// applicant's in-flight slot is held from the history read until the
// refetch, so a concurrent submit either reports busy or sees the new row.
func (w *Workflow) Submit(ctx context.Context, form Form) Result {
	form.Reason = strings.TrimSpace(form.Reason)
	w.form = form

	key := w.applicant.Email
	if !w.svc.begin(key) {
		w.svc.record(OutcomeBusy)
		requests, _ := w.svc.History(ctx, w.applicant)
		return w.result(requests, Result{Outcome: OutcomeBusy, Error: ErrSubmissionInProgress.Error()})
	}
	defer w.svc.end(key)

	requests, err := w.svc.History(ctx, w.applicant)
	if err != nil {
		slog.Warn("leave history load failed", "email", w.applicant.Email, "err", err)
		w.svc.record(OutcomeFailed)
		return w.result(nil, Result{Outcome: OutcomeFailed, Error: messageHistory})
	}

	if err := ValidateSubmission(requests, w.svc.allotment, form); err != nil {
		w.svc.record(OutcomeInvalid)
		res := Result{Outcome: OutcomeInvalid, Error: err.Error()}
		var verr *ValidationError
		if errors.As(err, &verr) {
			res.ErrorKind = verr.Kind
		}
		return w.result(requests, res)
	}

	w.setState(StateSubmitting)
	err = w.svc.apply(ctx, w.applicant, form)
	if err != nil {
		w.setState(StateIdle)
		slog.Warn("leave submit failed", "email", w.applicant.Email, "err", err)
		w.svc.record(OutcomeFailed)
		return w.result(requests, Result{Outcome: OutcomeFailed, Error: backend.MessageOr(err, messageSubmitFail)})
	}

	w.svc.history.Invalidate(key)
	w.setState(StateIdle)
	w.svc.record(OutcomeSubmitted)
	w.form = Form{}
	refreshed, err := w.svc.History(ctx, w.applicant)
	if err != nil {
		slog.Warn("leave history refetch failed", "email", w.applicant.Email, "err", err)
		refreshed = requests
	}
	return w.result(refreshed, Result{Outcome: OutcomeSubmitted, Notice: noticeSubmitted})
}

func (w *Workflow) result(requests []Request, r Result) Result {
	if requests == nil {
		requests = []Request{}
	}
	r.State = w.state
	r.Form = w.form
	r.Requests = requests
	r.Summary = Summarize(requests, w.svc.allotment)
	return r
}

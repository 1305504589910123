package resignationhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"payflow/internal/domain/access"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/leave"
	"payflow/internal/domain/resignation"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

const (
	noticeSubmitted = "Your resignation request has been submitted and sent to your manager for review."
	noticeWithdrawn = "Your resignation request has been withdrawn."
)

type Handler struct {
	Service *resignation.Service
	Audit   middleware.AuditRecorder
}

func NewHandler(service *resignation.Service, auditor middleware.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type submitRequest struct {
	RequestedLastWorkingDay string `json:"requestedLastWorkingDay"`
	Reason                  string `json:"reason"`
	CustomReason            string `json:"customReason"`
}

type decisionRequest struct {
	Action                 string `json:"action"`
	Comments               string `json:"comments"`
	ApprovedLastWorkingDay string `json:"approvedLastWorkingDay"`
}

type overview struct {
	Notice       string                    `json:"notice,omitempty"`
	Resignations []resignation.Resignation `json:"resignations"`
	Counts       resignation.Counts        `json:"counts"`
	// HasActive hides the resign button while a request is pending or approved.
	HasActive bool     `json:"hasActive"`
	Reasons   []string `json:"reasons"`
}

func newOverview(rs []resignation.Resignation, notice string) overview {
	if rs == nil {
		rs = []resignation.Resignation{}
	}
	out := overview{Notice: notice, Resignations: rs, Counts: resignation.Tally(rs), Reasons: resignation.Reasons}
	for _, r := range rs {
		if r.Status.Active() {
			out.HasActive = true
		}
	}
	return out
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/resignation", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(access.RoleEmployee))
			r.Get("/", h.handleOverview)
			r.Post("/", h.handleSubmit)
			r.Post("/{resignationID}/withdraw", h.handleWithdraw)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(access.RoleHR, access.RoleAdmin, access.RoleManager))
			r.Get("/requests", h.handleListRequests)
			r.Post("/requests/{resignationID}/action", h.handleAction)
		})
		r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin)).Get("/stats", h.handleStats)
	})
}

func applicant(sess *session.Session) resignation.Applicant {
	return resignation.Applicant{Token: sess.AuthToken, Email: sess.Email}
}

func reviewer(sess *session.Session) resignation.Reviewer {
	return resignation.Reviewer{Token: sess.AuthToken, Email: sess.Email, Role: sess.Role, ManagerID: sess.ManagerID}
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	history, err := h.Service.History(r.Context(), applicant(sess))
	if err != nil {
		h.fail(w, r, err, "Failed to load your resignation history.")
		return
	}
	api.Success(w, newOverview(history, ""), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	form := resignation.Form{Reason: payload.Reason, CustomReason: payload.CustomReason}
	if strings.TrimSpace(payload.RequestedLastWorkingDay) != "" {
		if day, ok := v.Date("requestedLastWorkingDay", payload.RequestedLastWorkingDay); ok {
			form.LastWorkingDay = leave.DateOf(day)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	history, err := h.Service.Submit(r.Context(), applicant(sess), form)
	if err != nil {
		h.fail(w, r, err, "Failed to submit resignation request.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionResignationSubmit, "resignation", sess.Email, form)
	api.Created(w, newOverview(history, noticeSubmitted), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "resignationID")
	history, err := h.Service.Withdraw(r.Context(), applicant(sess), id)
	if err != nil {
		h.fail(w, r, err, "Failed to withdraw resignation request.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionResignationWithdraw, "resignation", id, nil)
	api.Success(w, newOverview(history, noticeWithdrawn), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.Requests(r.Context(), reviewer(sess))
	if err != nil {
		h.fail(w, r, err, "Failed to load resignation requests.")
		return
	}
	counts := resignation.Tally(list)
	if raw := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))); raw != "" {
		filtered := make([]resignation.Resignation, 0, len(list))
		for _, res := range list {
			if string(res.Status) == raw {
				filtered = append(filtered, res)
			}
		}
		list = filtered
	}
	page := shared.ParsePagination(r, 50, 200)
	api.Success(w, map[string]any{
		"resignations": shared.Page(list, page),
		"counts":       counts,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	d := resignation.Decision{Action: resignation.Action(payload.Action), Comments: payload.Comments}
	if strings.TrimSpace(payload.ApprovedLastWorkingDay) != "" {
		if day, ok := v.Date("approvedLastWorkingDay", payload.ApprovedLastWorkingDay); ok {
			d.ApprovedLastWorkingDay = leave.DateOf(day)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id := chi.URLParam(r, "resignationID")
	if err := h.Service.Act(r.Context(), reviewer(sess), id, d); err != nil {
		h.fail(w, r, err, "Failed to update resignation request.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionResignationDecide, "resignation", id, payload)
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	stats, err := h.Service.Stats(r.Context(), sess.AuthToken)
	if err != nil {
		h.fail(w, r, err, "Failed to load resignation statistics.")
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, resignation.ErrFieldRequired),
		errors.Is(err, resignation.ErrUnknownReason),
		errors.Is(err, resignation.ErrCustomReasonLength),
		errors.Is(err, resignation.ErrLastDayTooSoon),
		errors.Is(err, resignation.ErrApprovedDayBefore):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_resignation", err.Error(), reqID)
	case errors.Is(err, resignation.ErrInvalidAction):
		api.Fail(w, http.StatusBadRequest, "invalid_action", err.Error(), reqID)
	case errors.Is(err, resignation.ErrCommentsRequired):
		api.Fail(w, http.StatusBadRequest, "comments_required", err.Error(), reqID)
	case errors.Is(err, resignation.ErrActiveResignation):
		api.Fail(w, http.StatusConflict, "active_resignation", err.Error(), reqID)
	case errors.Is(err, resignation.ErrSubmissionInProgress):
		api.Fail(w, http.StatusConflict, "submission_in_progress", err.Error(), reqID)
	case errors.Is(err, resignation.ErrNotPending):
		api.Fail(w, http.StatusConflict, "already_decided", err.Error(), reqID)
	case errors.Is(err, resignation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "resignation_not_found", err.Error(), reqID)
	case errors.Is(err, resignation.ErrReviewerUnknown), errors.Is(err, resignation.ErrNoEmployee):
		api.Fail(w, http.StatusForbidden, "actor_unknown", err.Error(), reqID)
	default:
		slog.Warn("resignation call failed", "err", err, "request_id", reqID)
		api.Fail(w, http.StatusBadGateway, "resignation_failed", backend.MessageOr(err, fallback), reqID)
	}
}

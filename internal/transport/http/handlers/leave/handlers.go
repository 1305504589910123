package leavehandler

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
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Audit   middleware.AuditRecorder
}

func NewHandler(service *leave.Service, auditor middleware.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type applyRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

type overview struct {
	leave.Result
	Stats *leave.Stats `json:"stats,omitempty"`
}

type requestList struct {
	Requests []leave.Request `json:"requests"`
	Counts   leave.Counts    `json:"counts"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequireRoles(access.RoleEmployee)).Get("/", h.handleOverview)
		r.With(middleware.RequireRoles(access.RoleEmployee)).Post("/", h.handleSubmit)
		r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin, access.RoleManager)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin, access.RoleManager)).Post("/requests/{requestID}/action", h.handleAction)
	})
}

func applicant(sess *session.Session) leave.Applicant {
	return leave.Applicant{Token: sess.AuthToken, Email: sess.Email, EmployeeID: sess.EmployeeID}
}

func reviewer(sess *session.Session) leave.Reviewer {
	return leave.Reviewer{Token: sess.AuthToken, Role: sess.Role, ManagerID: sess.ManagerID}
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	a := applicant(sess)
	out := overview{Result: h.Service.NewWorkflow(a).Load(r.Context())}
	if stats, err := h.Service.Stats(r.Context(), a); err != nil {
		slog.Warn("leave stats failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
	} else {
		out.Stats = &stats
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload applyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	// Blank dates are left for the workflow, which reports them as missing fields.
	v := shared.NewValidator()
	var form leave.Form
	if strings.TrimSpace(payload.StartDate) != "" {
		if from, ok := v.Date("startDate", payload.StartDate); ok {
			form.From = leave.DateOf(from)
		}
	}
	if strings.TrimSpace(payload.EndDate) != "" {
		if to, ok := v.Date("endDate", payload.EndDate); ok {
			form.To = leave.DateOf(to)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	form.Reason = payload.Reason

	res := h.Service.NewWorkflow(applicant(sess)).Submit(r.Context(), form)
	switch res.Outcome {
	case leave.OutcomeSubmitted:
		api.Created(w, res, middleware.GetRequestID(r.Context()))
	case leave.OutcomeInvalid:
		api.FailWithDetails(w, http.StatusUnprocessableEntity, string(res.ErrorKind), res.Error, res, middleware.GetRequestID(r.Context()))
	case leave.OutcomeBusy:
		api.FailWithDetails(w, http.StatusConflict, "submission_in_progress", res.Error, res, middleware.GetRequestID(r.Context()))
	default:
		api.FailWithDetails(w, http.StatusBadGateway, "leave_submit_failed", res.Error, res, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requests, err := h.Service.Requests(r.Context(), reviewer(sess))
	if errors.Is(err, leave.ErrReviewerUnknown) {
		api.Fail(w, http.StatusForbidden, "actor_unknown", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Warn("list leave requests failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "leave_requests_failed", "Failed to load leave requests.", middleware.GetRequestID(r.Context()))
		return
	}

	counts := leave.Tally(requests)
	if raw := r.URL.Query().Get("status"); raw != "" {
		want := leave.NormalizeStatus(raw)
		filtered := make([]leave.Request, 0, len(requests))
		for _, req := range requests {
			if req.Status == want {
				filtered = append(filtered, req)
			}
		}
		requests = filtered
	}
	page := shared.ParsePagination(r, 50, 200)
	api.Success(w, requestList{Requests: shared.Page(requests, page), Counts: counts}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload leave.Decision
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	err := h.Service.Act(r.Context(), reviewer(sess), requestID, payload)
	switch {
	case errors.Is(err, leave.ErrInvalidAction):
		api.Fail(w, http.StatusBadRequest, "invalid_action", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrDenialReasonRequired):
		api.Fail(w, http.StatusBadRequest, "reason_required", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrReviewerUnknown):
		api.Fail(w, http.StatusForbidden, "actor_unknown", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "leave_request_not_found", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, leave.ErrAlreadyDecided):
		api.Fail(w, http.StatusConflict, "already_decided", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		slog.Warn("leave action failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "leave_action_failed", backend.MessageOr(err, "Failed to update leave request."), middleware.GetRequestID(r.Context()))
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionLeaveDecide, "leave_request", requestID, payload)
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

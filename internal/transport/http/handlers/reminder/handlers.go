package reminderhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/domain/access"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/reminder"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *reminder.Service
	Audit   middleware.AuditRecorder
}

func NewHandler(service *reminder.Service, auditor middleware.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reminders", func(r chi.Router) {
		r.With(middleware.RequireRoles(access.RoleEmployee, access.RoleManager)).Get("/", h.handleList)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(access.RoleManager))
			r.Post("/", h.handleAdd)
			r.Post("/notify", h.handleNotify)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var (
		list []reminder.Reminder
		err  error
	)
	if sess.Role == access.RoleManager {
		list, err = h.Service.ForManager(r.Context(), sess.AuthToken, sess.ManagerID)
	} else {
		list, err = h.Service.ForEmployee(r.Context(), sess.AuthToken, sess.EmployeeID)
	}
	if err != nil {
		h.fail(w, r, err, "Failed to load reminders.")
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload reminder.Draft
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	saved, err := h.Service.Add(r.Context(), sess.AuthToken, sess.ManagerID, payload)
	if err != nil {
		h.fail(w, r, err, "Failed to add reminder.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionReminderAdd, "reminder", saved.ID.String(), payload)
	api.Created(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload reminder.Notification
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	sent, err := h.Service.Notify(r.Context(), sess.AuthToken, sess.ManagerID, payload)
	if err != nil {
		h.fail(w, r, err, "Failed to notify employees.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionReminderNotify, "reminder", payload.ReminderID, payload)
	api.Success(w, map[string]int{"notified": sent}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	if v := shared.NewValidator(); v.FieldErrors(err) {
		v.Reject(w, reqID)
		return
	}
	switch {
	case errors.Is(err, reminder.ErrManagerUnknown), errors.Is(err, reminder.ErrNoEmployee):
		api.Fail(w, http.StatusForbidden, "actor_unknown", err.Error(), reqID)
	case errors.Is(err, reminder.ErrNotTeamMember):
		api.Fail(w, http.StatusForbidden, "not_team_member", err.Error(), reqID)
	case errors.Is(err, reminder.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "reminder_not_found", err.Error(), reqID)
	default:
		slog.Warn("reminder call failed", "err", err, "request_id", reqID)
		api.Fail(w, http.StatusBadGateway, "reminder_failed", backend.MessageOr(err, fallback), reqID)
	}
}

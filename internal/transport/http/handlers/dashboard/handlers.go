package dashboardhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/domain/access"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/dashboard"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/platform/holidays"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
)

type HolidaySource interface {
	Upcoming(ctx context.Context) []holidays.Holiday
}

type Handler struct {
	Service  *dashboard.Service
	Holidays HolidaySource
	Audit    middleware.AuditRecorder
}

func NewHandler(service *dashboard.Service, hol HolidaySource, auditor middleware.AuditRecorder) *Handler {
	return &Handler{Service: service, Holidays: hol, Audit: auditor}
}

type announcementRequest struct {
	Message string `json:"message"`
}

type attendanceRequest struct {
	Present *bool `json:"present"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin)).Get("/dashboard/hr", h.handleHR)
	r.With(middleware.RequireRoles(access.RoleManager)).Get("/dashboard/manager", h.handleManager)
	r.With(middleware.RequireRoles(access.RoleEmployee)).Get("/dashboard/employee", h.handleEmployee)

	r.With(middleware.RequireRoles()).Get("/announcements", h.handleListAnnouncements)
	r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin)).Post("/announcements", h.handlePostAnnouncement)
	r.With(middleware.RequireRoles(access.RoleEmployee)).Post("/attendance", h.handleMarkAttendance)
	r.With(middleware.RequireRoles()).Get("/holidays", h.handleHolidays)
}

func viewer(sess *session.Session) dashboard.Viewer {
	return dashboard.Viewer{
		Token:      sess.AuthToken,
		Email:      sess.Email,
		EmployeeID: sess.EmployeeID,
		ManagerID:  sess.ManagerID,
	}
}

func (h *Handler) handleHR(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Service.HR(r.Context(), viewer(sess)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleManager(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Service.Manager(r.Context(), viewer(sess)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Service.Employee(r.Context(), viewer(sess)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.Announcements(r.Context(), sess.AuthToken)
	if err != nil {
		slog.Warn("list announcements failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "announcements_failed", "Failed to load announcements.", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePostAnnouncement(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload announcementRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	created, err := h.Service.PostAnnouncement(r.Context(), sess.AuthToken, payload.Message)
	if errors.Is(err, dashboard.ErrMessageRequired) {
		api.Fail(w, http.StatusBadRequest, "message_required", "Announcement message is required.", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Warn("post announcement failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "announcement_failed", backend.MessageOr(err, "Failed to post announcement."), middleware.GetRequestID(r.Context()))
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionAnnouncement, "announcement", "", payload)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	present := true
	if payload.Present != nil {
		present = *payload.Present
	}
	record, err := h.Service.MarkAttendance(r.Context(), sess.AuthToken, sess.EmployeeID, present)
	if errors.Is(err, dashboard.ErrNoEmployee) {
		api.Fail(w, http.StatusConflict, "no_employee_record", "Your account is not linked to an employee record.", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Warn("mark attendance failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "attendance_failed", backend.MessageOr(err, "Failed to mark attendance."), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

// handleHolidays never fails; an unreachable feed yields an empty list.
func (h *Handler) handleHolidays(w http.ResponseWriter, r *http.Request) {
	list := h.Holidays.Upcoming(r.Context())
	if list == nil {
		list = []holidays.Holiday{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

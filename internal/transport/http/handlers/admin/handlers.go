package adminhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/domain/access"
	"payflow/internal/domain/admin"
	"payflow/internal/domain/audit"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *admin.Service
	Audit   middleware.AuditRecorder
}

func NewHandler(service *admin.Service, auditor middleware.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(middleware.RequireRoles(access.RoleAdmin))
		r.Get("/", h.handleList)
		r.Post("/", h.handleAdd)
		r.Post("/disable", h.handleDisable)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	users, err := h.Service.Users(r.Context(), sess.AuthToken)
	if err != nil {
		h.fail(w, r, err, "Failed to load users.")
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	api.Success(w, shared.Page(users, page), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload admin.NewUser
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	created, err := h.Service.AddUser(r.Context(), sess.AuthToken, payload)
	if err != nil {
		h.fail(w, r, err, "Failed to add user.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionUserAdd, "user", created.Email, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDisable(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.DisableUser(r.Context(), sess.AuthToken, payload.Username); err != nil {
		h.fail(w, r, err, "Failed to disable user.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionUserDisable, "user", payload.Username, nil)
	api.Success(w, map[string]string{"status": "disabled"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	if v := shared.NewValidator(); v.FieldErrors(err) {
		v.Reject(w, reqID)
		return
	}
	switch {
	case errors.Is(err, admin.ErrUserExists):
		api.Fail(w, http.StatusConflict, "user_exists", err.Error(), reqID)
	case errors.Is(err, admin.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", err.Error(), reqID)
	default:
		slog.Warn("admin user call failed", "err", err, "request_id", reqID)
		api.Fail(w, http.StatusBadGateway, "admin_user_failed", backend.MessageOr(err, fallback), reqID)
	}
}

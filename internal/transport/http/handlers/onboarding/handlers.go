package onboardinghandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payflow/internal/domain/access"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/onboarding"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *onboarding.Service
	Audit   middleware.AuditRecorder
}

func NewHandler(service *onboarding.Service, auditor middleware.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

type draftResponse struct {
	Draft onboarding.Draft    `json:"draft"`
	Next  onboarding.StepName `json:"next,omitempty"`
}

type stepResponse struct {
	Step  onboarding.StepName `json:"step"`
	Data  onboarding.Step     `json:"data"`
	Saved bool                `json:"saved"`
	Next  onboarding.StepName `json:"next,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/onboarding", func(r chi.Router) {
		r.Use(middleware.RequireRoles(access.RoleHR, access.RoleAdmin))
		r.Get("/", h.handleDraft)
		r.Delete("/", h.handleDiscard)
		r.Get("/steps/{step}", h.handleGetStep)
		r.Put("/steps/{step}", h.handleSaveStep)
		r.Post("/submit", h.handleSubmit)
	})
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	d, err := h.Service.Draft(r.Context(), sess.ID)
	if err != nil {
		slog.Warn("load onboarding draft failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "draft_failed", "failed to load onboarding draft", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, draftResponse{Draft: d, Next: d.Next()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	name, ok := onboarding.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		api.Fail(w, http.StatusNotFound, "unknown_step", onboarding.ErrUnknownStep.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	d, err := h.Service.Draft(r.Context(), sess.ID)
	if err != nil {
		slog.Warn("load onboarding draft failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "draft_failed", "failed to load onboarding draft", middleware.GetRequestID(r.Context()))
		return
	}
	step := d.Step(name)
	api.Success(w, stepResponse{Step: name, Data: step, Saved: step != nil, Next: d.Next()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	name, ok := onboarding.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		api.Fail(w, http.StatusNotFound, "unknown_step", onboarding.ErrUnknownStep.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	step, err := onboarding.DecodeStep(name, raw)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	d, err := h.Service.SaveStep(r.Context(), sess.ID, step)
	var verr *onboarding.ValidationError
	switch {
	case errors.As(err, &verr):
		issues := make([]shared.ValidationIssue, 0, len(verr.Issues))
		for _, is := range verr.Issues {
			issues = append(issues, shared.ValidationIssue{Field: is.Field, Reason: is.Reason})
		}
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), issues)
		return
	case errors.Is(err, onboarding.ErrStepOutOfOrder):
		api.FailWithDetails(w, http.StatusConflict, "step_out_of_order", err.Error(), map[string]any{"next": d.Next()}, middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		slog.Warn("save onboarding step failed", "step", name, "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "draft_failed", "failed to save onboarding step", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, stepResponse{Step: name, Data: step, Saved: true, Next: d.Next()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	emp, err := h.Service.Submit(r.Context(), sess.AuthToken, sess.ID)
	if errors.Is(err, onboarding.ErrIncomplete) {
		api.Fail(w, http.StatusConflict, "onboarding_incomplete", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil && emp.Email == "" {
		slog.Warn("onboard employee failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "onboarding_failed", backend.MessageOr(err, "Failed to onboard employee."), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		// The employee exists; only clearing the draft failed.
		slog.Warn("onboarding draft cleanup failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
	}
	middleware.Audit(r, h.Audit, audit.ActionOnboard, "employee", emp.Email, nil)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Discard(r.Context(), sess.ID); err != nil {
		slog.Warn("discard onboarding draft failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "draft_failed", "failed to discard onboarding draft", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "discarded"}, middleware.GetRequestID(r.Context()))
}

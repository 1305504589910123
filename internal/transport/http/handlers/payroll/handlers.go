package payrollhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"payflow/internal/domain/access"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/session"
	"payflow/internal/platform/backend"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   middleware.AuditRecorder
}

func NewHandler(service *payroll.Service, auditor middleware.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

var holdRoles = []access.Role{access.RoleHR, access.RoleAdmin, access.RoleManager}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payslips", func(r chi.Router) {
		r.With(middleware.RequireRoles(access.RoleEmployee, access.RoleHR, access.RoleAdmin)).Get("/", h.handleListPayslips)
		r.With(middleware.RequireRoles()).Get("/{payslipID}/pdf", h.handleDownloadPayslip)
		r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin)).Post("/generate", h.handleGeneratePayslip)
	})
	r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin)).Post("/ctc", h.handleAddCTC)
	r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin, access.RoleEmployee)).Get("/ctc/{employeeID}", h.handleCTCHistory)

	r.Route("/payrolls", func(r chi.Router) {
		r.With(middleware.RequireRoles(holdRoles...)).Post("/schedule", h.handleSchedulePayroll)
		r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin)).Post("/run", h.handleRunPayroll)
		r.With(middleware.RequireRoles(access.RoleHR, access.RoleAdmin)).Get("/scheduler", h.handleSchedulerStatus)
	})

	r.Route("/payment-holds", func(r chi.Router) {
		r.Use(middleware.RequireRoles(holdRoles...))
		r.Get("/", h.handleListHolds)
		r.Post("/", h.handlePlaceHold)
		r.Get("/reasons", h.handleHoldReasons)
		r.Get("/{employeeID}", h.handleHoldStatus)
		r.Post("/{employeeID}/release", h.handleReleaseHold)
	})
}

func actor(sess *session.Session) payroll.Actor {
	return payroll.Actor{UserID: sess.UserID, Role: string(sess.Role), ManagerID: sess.ManagerID}
}

// ownEmployee reports whether sess may read employeeID's payroll data.
func ownEmployee(sess *session.Session, employeeID string) bool {
	if sess.Role != access.RoleEmployee {
		return true
	}
	return sess.EmployeeID != "" && sess.EmployeeID == employeeID
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if sess.Role == access.RoleEmployee {
		employeeID = sess.EmployeeID
	}
	payslips, err := h.Service.Payslips(r.Context(), sess.AuthToken, employeeID)
	if errors.Is(err, payroll.ErrEmployeeRequired) {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "employeeId", Reason: "is required"}})
		return
	}
	if err != nil {
		slog.Warn("list payslips failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "payslips_failed", "Failed to load payslips.", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, payslips, middleware.GetRequestID(r.Context()))
}

// handleDownloadPayslip renders nothing unless every required detail was fetched.
func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	doc, err := h.Service.Document(r.Context(), sess.AuthToken, chi.URLParam(r, "payslipID"))
	if err != nil {
		slog.Warn("payslip download failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "download_failed", payroll.DownloadFailedNotice, middleware.GetRequestID(r.Context()))
		return
	}
	if !ownEmployee(sess, doc.Payslip.EmployeeID.String()) {
		api.Fail(w, http.StatusForbidden, "forbidden", "payslip belongs to another employee", middleware.GetRequestID(r.Context()))
		return
	}

	var buf bytes.Buffer
	if err := payroll.RenderPayslip(&buf, doc); err != nil {
		slog.Warn("payslip render failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "render_failed", payroll.DownloadFailedNotice, middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+payroll.PayslipFilename(doc)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("payslip write failed", "err", err)
	}
}

func (h *Handler) handleGeneratePayslip(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload payroll.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.GeneratedBy == "" {
		payload.GeneratedBy = sess.Email
	}

	payslip, err := h.Service.GeneratePayslip(r.Context(), sess.AuthToken, payload)
	if v := shared.NewValidator(); v.FieldErrors(err) {
		v.Reject(w, middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Warn("generate payslip failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "generate_failed", backend.MessageOr(err, "Failed to generate payslip."), middleware.GetRequestID(r.Context()))
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionPayslipGenerate, "payslip", payslip.PayslipID.String(), payload)
	api.Created(w, payslip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddCTC(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload payroll.CTC
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID.String(), "is required")
	v.Required("effectiveFrom", payload.EffectiveFrom, "is required")
	if payload.EffectiveFrom != "" {
		v.Date("effectiveFrom", payload.EffectiveFrom)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if payload.CreatedBy == "" {
		payload.CreatedBy = sess.Email
	}

	saved, err := h.Service.AddCTC(r.Context(), sess.AuthToken, payload)
	if errors.Is(err, payroll.ErrInvalidCTC) {
		api.Fail(w, http.StatusBadRequest, "invalid_ctc", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Warn("add ctc failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "ctc_failed", backend.MessageOr(err, "Failed to save CTC structure."), middleware.GetRequestID(r.Context()))
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionCTCAdd, "ctc", payload.EmployeeID.String(), saved)
	api.Created(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCTCHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if !ownEmployee(sess, employeeID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "employees may only view their own CTC", middleware.GetRequestID(r.Context()))
		return
	}
	history, err := h.Service.CTCHistory(r.Context(), sess.AuthToken, employeeID)
	if err != nil {
		slog.Warn("ctc history failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "ctc_history_failed", "Failed to load CTC history.", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHoldReasons(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{
		"categories":     payroll.HoldReasons,
		"customCategory": payroll.CustomReasonCategory,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListHolds(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	holds, err := h.Service.ListHolds(r.Context(), sess.AuthToken, actor(sess))
	if err != nil {
		failPayroll(w, r, err, "payment_hold_failed", "Failed to load payment holds.")
		return
	}
	api.Success(w, shared.Page(holds, shared.ParsePagination(r, 50, 200)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHoldStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	status, err := h.Service.HoldStatus(r.Context(), sess.AuthToken, actor(sess), chi.URLParam(r, "employeeID"))
	if err != nil {
		failPayroll(w, r, err, "payment_hold_failed", "Failed to load payment hold status.")
		return
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePlaceHold(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload payroll.HoldRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.PlaceHold(r.Context(), sess.AuthToken, actor(sess), payload); err != nil {
		failPayroll(w, r, err, "payment_hold_failed", "Failed to place payment hold.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionHoldPlace, "payment_hold", payload.EmployeeID, payload)
	api.Created(w, map[string]string{"status": "held", "employeeId": payload.EmployeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReleaseHold(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.ReleaseHold(r.Context(), sess.AuthToken, actor(sess), employeeID); err != nil {
		failPayroll(w, r, err, "payment_hold_failed", "Failed to release payment hold.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionHoldRelease, "payment_hold", employeeID, nil)
	api.Success(w, map[string]string{"status": "released", "employeeId": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSchedulePayroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload payroll.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	saved, err := h.Service.SchedulePayroll(r.Context(), sess.AuthToken, actor(sess), payload)
	if err != nil {
		failPayroll(w, r, err, "schedule_failed", "Something went wrong while scheduling payroll.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionPayrollSchedule, "payroll", payload.EmployeeID.String(), payload)
	api.Created(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunPayroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload payroll.RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}
	generatedBy := sess.Email
	if generatedBy == "" {
		generatedBy = sess.UserID
	}
	res, err := h.Service.RunPayroll(r.Context(), sess.AuthToken, generatedBy, payload)
	if err != nil {
		failPayroll(w, r, err, "payroll_run_failed", "Failed to generate payroll.")
		return
	}
	middleware.Audit(r, h.Audit, audit.ActionPayrollRun, "payroll_run", res.Month+" "+strconv.Itoa(res.Year), payload)
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	status, err := h.Service.SchedulerStatus(r.Context(), sess.AuthToken)
	if err != nil {
		slog.Warn("scheduler status failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "scheduler_status_failed", backend.MessageOr(err, "Failed to load payroll scheduler status."), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

// failPayroll maps actor, team and validation failures shared by holds and
// payroll scheduling. Anything else is a backend failure reported as code.
func failPayroll(w http.ResponseWriter, r *http.Request, err error, code, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	if v := shared.NewValidator(); v.FieldErrors(err) {
		v.Reject(w, reqID)
		return
	}
	switch {
	case errors.Is(err, payroll.ErrActorUnknown):
		api.Fail(w, http.StatusForbidden, "actor_unknown", err.Error(), reqID)
	case errors.Is(err, payroll.ErrNotTeamMember):
		api.Fail(w, http.StatusForbidden, "not_team_member", err.Error(), reqID)
	case errors.Is(err, payroll.ErrHoldReasonRequired), errors.Is(err, payroll.ErrUnknownHoldReason):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "holdReason", Reason: err.Error()}})
	case errors.Is(err, payroll.ErrEmployeeRequired):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "employeeId", Reason: "is required"}})
	case errors.Is(err, payroll.ErrPaymentDateInPast):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "paymentDate", Reason: err.Error()}})
	default:
		slog.Warn("payroll call failed", "err", err, "code", code, "request_id", reqID)
		api.Fail(w, http.StatusBadGateway, code, backend.MessageOr(err, fallback), reqID)
	}
}

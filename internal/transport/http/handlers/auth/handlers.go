package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"payflow/internal/auth"
	"payflow/internal/domain/access"
	"payflow/internal/domain/session"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type Handler struct {
	Sessions *session.Service
	Secret   string
	Cookie   CookieConfig
}

func NewHandler(sessions *session.Service, secret string, cookie CookieConfig) *Handler {
	return &Handler{Sessions: sessions, Secret: secret, Cookie: cookie}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type sessionResponse struct {
	Token    string           `json:"token,omitempty"`
	User     *session.Session `json:"user"`
	Redirect string           `json:"redirect"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.With(middleware.RequireRoles()).Get("/auth/session", h.HandleSession)
	r.With(middleware.RequireRoles()).Post("/auth/reset-password", h.HandleResetPassword)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("username", payload.Username, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	sess, err := h.Sessions.Login(r.Context(), payload.Username, payload.Password)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password.", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, session.ErrUnknownRole):
		api.Fail(w, http.StatusForbidden, "unknown_role", "Your account has no console role.", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		slog.Warn("login failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "login_failed", "Login failed. Please try again.", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{SessionID: sess.ID, Role: string(sess.Role)}, h.Cookie.TTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	h.setCookie(w, token, h.Cookie.TTL)

	api.Success(w, sessionResponse{
		Token:    token,
		User:     &sess,
		Redirect: access.HomePath(sess.Role, sess.FirstLogin),
	}, middleware.GetRequestID(r.Context()))
}

// HandleLogout forgets the stored session. It succeeds for anonymous callers too.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if raw := middleware.SessionToken(r, h.Cookie.Name); raw != "" {
		if claims, err := auth.ParseToken(h.Secret, raw); err == nil {
			if err := h.Sessions.Logout(r.Context(), claims.SessionID); err != nil {
				slog.Warn("logout session delete failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
			}
		}
	}
	h.setCookie(w, "", -1)
	api.Success(w, map[string]string{"status": "logged_out", "redirect": access.LoginPath}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sessionResponse{User: sess, Redirect: access.HomePath(sess.Role, sess.FirstLogin)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.ConfirmPassword != "" && payload.NewPassword != payload.ConfirmPassword {
		api.Fail(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.", middleware.GetRequestID(r.Context()))
		return
	}

	updated, err := h.Sessions.ResetPassword(r.Context(), *sess, payload.NewPassword)
	if errors.Is(err, session.ErrPasswordRequired) {
		api.Fail(w, http.StatusBadRequest, "password_required", "New password is required.", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Warn("reset password failed", "err", err, "request_id", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusBadGateway, "reset_failed", "Failed to reset password.", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sessionResponse{User: &updated, Redirect: access.HomePath(updated.Role, false)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.Expires = time.Now().Add(ttl)
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}

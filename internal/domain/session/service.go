package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"payflow/internal/auth"
	"payflow/internal/domain/access"
	"payflow/internal/platform/backend"
)

type Backend interface {
	Get(ctx context.Context, path, token string, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
}

type loginResponse struct {
	Token      string     `json:"token"`
	Role       string     `json:"role"`
	FirstLogin bool       `json:"firstLogin"`
	Name       string     `json:"name"`
	ID         backend.ID `json:"id"`
	ManagerID  backend.ID `json:"managerId"`
}

type employeeRecord struct {
	ID backend.ID `json:"id"`
}

type localAdmin struct {
	username     string
	passwordHash string
}

// Service is the only way the console reads or writes session state.
type Service struct {
	store   Store
	backend Backend
	admin   *localAdmin
	newID   func() string
	now     func() time.Time
}

type Option func(*Service)

// WithLocalAdmin enables a console-only administrator account checked against a bcrypt hash.
func WithLocalAdmin(username, passwordHash string) Option {
	return func(s *Service) {
		if username != "" && passwordHash != "" {
			s.admin = &localAdmin{username: username, passwordHash: passwordHash}
		}
	}
}

func NewService(store Store, b Backend, opts ...Option) *Service {
	s := &Service{
		store:   store,
		backend: b,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	if s.admin != nil && strings.EqualFold(username, s.admin.username) {
		return s.loginLocalAdmin(ctx, username, password)
	}

	var resp loginResponse
	err := s.backend.Post(ctx, "/api/login", "", map[string]string{"username": username, "password": password}, &resp)
	if err != nil {
		switch backend.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return Session{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, backend.MessageOr(err, "rejected by backend"))
		}
		return Session{}, fmt.Errorf("backend login: %w", err)
	}
	if resp.Token == "" {
		return Session{}, ErrInvalidCredentials
	}
	role, ok := access.ParseRole(resp.Role)
	if !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrUnknownRole, resp.Role)
	}

	sess := Session{
		ID:         s.newID(),
		AuthToken:  resp.Token,
		Role:       role,
		Email:      username,
		Name:       resp.Name,
		UserID:     resp.ID.String(),
		FirstLogin: resp.FirstLogin,
		CreatedAt:  s.now().UTC(),
	}

	switch role {
	case access.RoleManager:
		sess.ManagerID = resp.ManagerID.String()
		if sess.ManagerID == "" {
			sess.ManagerID = resp.ID.String()
		}
	case access.RoleEmployee:
		var emp employeeRecord
		if err := s.backend.Get(ctx, "/api/employee?email="+url.QueryEscape(username), resp.Token, &emp); err != nil {
			slog.Warn("employee lookup at login failed", "email", username, "err", err)
		} else {
			sess.EmployeeID = emp.ID.String()
		}
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *Service) loginLocalAdmin(ctx context.Context, username, password string) (Session, error) {
	if err := auth.CheckPassword(s.admin.passwordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	id := s.newID()
	sess := Session{
		ID:        id,
		AuthToken: uuid.NewString(),
		Role:      access.RoleAdmin,
		Email:     username,
		Name:      "Administrator",
		UserID:    username,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Current returns the session for id, or nil when there is none.
func (s *Service) Current(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Service) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.store.Delete(ctx, id)
}

// ResetPassword changes the backend password and clears the first-login flag.
func (s *Service) ResetPassword(ctx context.Context, sess Session, newPassword string) (Session, error) {
	if strings.TrimSpace(newPassword) == "" {
		return sess, ErrPasswordRequired
	}
	if err := s.backend.Post(ctx, "/api/reset-password", sess.AuthToken, map[string]string{"newPassword": newPassword}, nil); err != nil {
		return sess, fmt.Errorf("backend reset password: %w", err)
	}
	sess.FirstLogin = false
	if err := s.store.Save(ctx, sess); err != nil {
		return sess, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

package session

import (
	"context"
	"errors"
	"time"

	"payflow/internal/domain/access"
)

var (
	ErrNotFound           = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = errors.New("unknown role")
	ErrPasswordRequired   = errors.New("new password is required")
)

// Session is the console's record of a signed-in user. The backend token
// never leaves the server.
type Session struct {
	ID         string      `json:"-"`
	AuthToken  string      `json:"-"`
	Role       access.Role `json:"role"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	UserID     string      `json:"userId,omitempty"`
	EmployeeID string      `json:"employeeId,omitempty"`
	ManagerID  string      `json:"managerId,omitempty"`
	FirstLogin bool        `json:"firstLogin"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (s *Session) Principal() *access.Principal {
	if s == nil {
		return nil
	}
	return &access.Principal{Token: s.AuthToken, Role: s.Role}
}

// Store is the durable key-value backing for sessions. Implementations must
// be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

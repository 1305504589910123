package admin

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"payflow/internal/platform/backend"
)

var (
	ErrUserExists   = errors.New("a user with this email already exists")
	ErrUserNotFound = errors.New("user not found")
)

// NewUser is an HR or manager account created by an administrator. A blank
// password is replaced with a generated one; the backend emails credentials
// to the new user.
type NewUser struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=HR MANAGER"`
}

// User is an account as listed to administrators. Credentials are never decoded.
type User struct {
	ID         backend.ID `json:"id"`
	Name       string     `json:"name"`
	Username   string     `json:"username"`
	Role       string     `json:"role"`
	FirstLogin bool       `json:"firstLogin"`
	Active     *bool      `json:"active"`
}

type Created struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message,omitempty"`
}

type Backend interface {
	Get(ctx context.Context, path, token string, out any) error
	Post(ctx context.Context, path, token string, body, out any) error
	Put(ctx context.Context, path, token string, body, out any) error
}

type Service struct {
	backend  Backend
	validate *validator.Validate
	password func() string
}

func NewService(b Backend) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &Service{backend: b, validate: v, password: rand.Text}
}

func (s *Service) AddUser(ctx context.Context, token string, u NewUser) (Created, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Role = strings.ToUpper(strings.TrimSpace(u.Role))
	if err := s.validate.Struct(u); err != nil {
		return Created{}, err
	}
	if u.Password == "" {
		u.Password = s.password()
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := s.backend.Post(ctx, "/api/admin/add-user", token, u, &resp); err != nil {
		if backend.StatusOf(err) == http.StatusConflict {
			return Created{}, ErrUserExists
		}
		return Created{}, fmt.Errorf("add user: %w", err)
	}
	return Created{Name: u.Name, Email: u.Email, Role: u.Role, Message: resp.Message}, nil
}

func (s *Service) Users(ctx context.Context, token string) ([]User, error) {
	out := []User{}
	if err := s.backend.Get(ctx, "/api/admin/users", token, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// DisableUser deactivates the account whose login is username.
func (s *Service) DisableUser(ctx context.Context, token, username string) error {
	body := struct {
		Username string `json:"username" validate:"required,email"`
	}{Username: strings.ToLower(strings.TrimSpace(username))}
	if err := s.validate.Struct(body); err != nil {
		return err
	}
	if err := s.backend.Put(ctx, "/api/admin/disable-user", token, body, nil); err != nil {
		if backend.StatusOf(err) == http.StatusNotFound {
			return ErrUserNotFound
		}
		return fmt.Errorf("disable user: %w", err)
	}
	return nil
}

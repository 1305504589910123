package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payflow/internal/domain/access"
	"payflow/internal/platform/crypto"
)

type PostgresStore struct {
	db     *pgxpool.Pool
	sealer *crypto.Sealer
}

func NewPostgresStore(db *pgxpool.Pool, sealer *crypto.Sealer) *PostgresStore {
	return &PostgresStore{db: db, sealer: sealer}
}

func (p *PostgresStore) Save(ctx context.Context, s Session) error {
	token, err := p.sealer.Seal(s.AuthToken)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, `
    INSERT INTO console_sessions (id, auth_token, role, email, name, user_id, employee_id, manager_id, first_login, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (id) DO UPDATE SET
      auth_token = EXCLUDED.auth_token,
      role = EXCLUDED.role,
      email = EXCLUDED.email,
      name = EXCLUDED.name,
      user_id = EXCLUDED.user_id,
      employee_id = EXCLUDED.employee_id,
      manager_id = EXCLUDED.manager_id,
      first_login = EXCLUDED.first_login
  `, s.ID, token, string(s.Role), s.Email, s.Name, s.UserID, s.EmployeeID, s.ManagerID, s.FirstLogin, s.CreatedAt)
	return err
}

func (p *PostgresStore) Load(ctx context.Context, id string) (Session, error) {
	var (
		s     Session
		token []byte
		role  string
	)
	err := p.db.QueryRow(ctx, `
    SELECT id, auth_token, role, email, name, user_id, employee_id, manager_id, first_login, created_at
    FROM console_sessions
    WHERE id = $1
  `, id).Scan(&s.ID, &token, &role, &s.Email, &s.Name, &s.UserID, &s.EmployeeID, &s.ManagerID, &s.FirstLogin, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	s.Role = access.Role(role)
	if s.AuthToken, err = p.sealer.Open(token); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.db.Exec(ctx, "DELETE FROM console_sessions WHERE id = $1", id)
	return err
}

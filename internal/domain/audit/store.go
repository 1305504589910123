package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryStore keeps the most recent events up to a fixed capacity.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	max    int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryStore{max: capacity}
}

func (m *MemoryStore) Insert(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	if over := len(m.events) - m.max; over > 0 {
		m.events = append([]Event(nil), m.events[over:]...)
	}
	return nil
}

func (m *MemoryStore) matching(f Filter) []Event {
	out := []Event{}
	for i := len(m.events) - 1; i >= 0; i-- {
		if f.matches(m.events[i]) {
			out = append(out, m.events[i])
		}
	}
	return out
}

func (m *MemoryStore) Count(_ context.Context, f Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(f)), nil
}

func (m *MemoryStore) List(_ context.Context, f Filter, limit, offset int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.matching(f)
	if offset >= len(all) {
		return []Event{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Insert(ctx context.Context, e Event) error {
	var after []byte
	if len(e.After) > 0 {
		after = e.After
	}
	_, err := p.db.Exec(ctx, `
    INSERT INTO console_audit_events (id, actor_user_id, actor_role, action, entity_type, entity_id, request_id, ip, after_json, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, e.ID, e.ActorID, e.ActorRole, e.Action, e.EntityType, e.EntityID, e.RequestID, e.IP, after, e.CreatedAt)
	return err
}

func (p *PostgresStore) Count(ctx context.Context, f Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", f)
	var total int
	if err := p.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (p *PostgresStore) List(ctx context.Context, f Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery("SELECT id, actor_user_id, actor_role, action, entity_type, entity_id, request_id, ip, after_json, created_at", f)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		var after []byte
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.ActorRole, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &after, &evt.CreatedAt); err != nil {
			return nil, err
		}
		evt.After = after
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, f Filter) (string, []any) {
	query := prefix + " FROM console_audit_events WHERE 1=1"
	var args []any
	if f.Action != "" {
		args = append(args, f.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if f.ActorUser != "" {
		args = append(args, f.ActorUser)
		query += fmt.Sprintf(" AND actor_user_id = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	return query, args
}

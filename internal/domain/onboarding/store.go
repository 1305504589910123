package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// DraftStore keeps one wizard draft per console session. A missing draft loads as empty.
type DraftStore interface {
	Load(ctx context.Context, sessionID string) (Draft, error)
	Save(ctx context.Context, sessionID string, d Draft) error
	Delete(ctx context.Context, sessionID string) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: map[string]Draft{}}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drafts[sessionID], nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, d Draft) error {
	m.mu.Lock()
	m.drafts[sessionID] = d
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.drafts, sessionID)
	m.mu.Unlock()
	return nil
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Load(ctx context.Context, sessionID string) (Draft, error) {
	var raw []byte
	err := p.db.QueryRow(ctx, "SELECT draft FROM onboarding_drafts WHERE session_id = $1", sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Draft{}, nil
	}
	if err != nil {
		return Draft{}, err
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode onboarding draft: %w", err)
	}
	return d, nil
}

func (p *PostgresStore) Save(ctx context.Context, sessionID string, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, `
    INSERT INTO onboarding_drafts (session_id, draft, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (session_id) DO UPDATE SET draft = EXCLUDED.draft, updated_at = now()
  `, sessionID, raw)
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	_, err := p.db.Exec(ctx, "DELETE FROM onboarding_drafts WHERE session_id = $1", sessionID)
	return err
}

const redisDraftPrefix = "payflow:onboarding:"

// RedisStore expires abandoned drafts after ttl.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (Draft, error) {
	raw, err := r.client.Get(ctx, redisDraftPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, nil
	}
	if err != nil {
		return Draft{}, fmt.Errorf("redis load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode onboarding draft: %w", err)
	}
	return d, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisDraftPrefix+sessionID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save draft: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, redisDraftPrefix+sessionID).Err()
}

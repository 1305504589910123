package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"payflow/internal/domain/access"
	"payflow/internal/platform/crypto"
)

const redisKeyPrefix = "payflow:session:"

// RedisStore keeps each session as a hash of plain string fields.
type RedisStore struct {
	client *redis.Client
	sealer *crypto.Sealer
}

func NewRedisStore(client *redis.Client, sealer *crypto.Sealer) *RedisStore {
	return &RedisStore{client: client, sealer: sealer}
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	token, err := r.sealer.Seal(s.AuthToken)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"authToken":  base64.StdEncoding.EncodeToString(token),
		"role":       string(s.Role),
		"email":      s.Email,
		"name":       s.Name,
		"userId":     s.UserID,
		"employeeId": s.EmployeeID,
		"managerId":  s.ManagerID,
		"firstLogin": strconv.FormatBool(s.FirstLogin),
		"createdAt":  s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	key := redisKeyPrefix + s.ID
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.HDel(ctx, key, "userEmail")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (Session, error) {
	values, err := r.client.HGetAll(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return Session{}, fmt.Errorf("redis load session: %w", err)
	}
	if len(values) == 0 {
		return Session{}, ErrNotFound
	}

	sealed, err := base64.StdEncoding.DecodeString(values["authToken"])
	if err != nil {
		return Session{}, fmt.Errorf("decode session token: %w", err)
	}
	token, err := r.sealer.Open(sealed)
	if err != nil {
		return Session{}, err
	}

	email := values["email"]
	if email == "" {
		email = values["userEmail"]
	}
	firstLogin, _ := strconv.ParseBool(values["firstLogin"])
	createdAt, _ := time.Parse(time.RFC3339Nano, values["createdAt"])

	return Session{
		ID:         id,
		AuthToken:  token,
		Role:       access.Role(values["role"]),
		Email:      email,
		Name:       values["name"],
		UserID:     values["userId"],
		EmployeeID: values["employeeId"],
		ManagerID:  values["managerId"],
		FirstLogin: firstLogin,
		CreatedAt:  createdAt,
	}, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

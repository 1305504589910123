package session

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/access"
	"payflow/internal/platform/config"
	"payflow/internal/platform/crypto"
	"payflow/internal/platform/db"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	id := "store-test-" + time.Now().Format("150405.000000000")
	sess := Session{
		ID:         id,
		AuthToken:  "backend-token",
		Role:       access.RoleEmployee,
		Email:      "asha@payflow.test",
		Name:       "Asha",
		UserID:     "11",
		EmployeeID: "7",
		FirstLogin: true,
		CreatedAt:  time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Save(ctx, sess))
	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sess.AuthToken, loaded.AuthToken)
	assert.Equal(t, sess.Role, loaded.Role)
	assert.Equal(t, sess.EmployeeID, loaded.EmployeeID)
	assert.True(t, loaded.FirstLogin)
	assert.True(t, sess.CreatedAt.Equal(loaded.CreatedAt))

	sess.FirstLogin = false
	require.NoError(t, store.Save(ctx, sess))
	loaded, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, loaded.FirstLogin)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	sealer, err := crypto.NewSealer(strings.Repeat("0f", 32))
	require.NoError(t, err)
	return sealer
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestPostgresStore(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, config.Config{DatabaseURL: dbURL})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.Migrate(ctx, pool))

	exerciseStore(t, NewPostgresStore(pool, testSealer(t)))
}

func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, testSealer(t)))
}

func TestRedisStoreReadsLegacyEmailKey(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()
	ctx := context.Background()

	key := redisKeyPrefix + "legacy"
	require.NoError(t, client.HSet(ctx, key, map[string]any{
		"authToken": "dG9r",
		"role":      "EMPLOYEE",
		"userEmail": "old@payflow.test",
	}).Err())
	defer client.Del(ctx, key)

	store := NewRedisStore(client, nil)
	sess, err := store.Load(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "old@payflow.test", sess.Email)
	assert.Equal(t, "tok", sess.AuthToken)
}

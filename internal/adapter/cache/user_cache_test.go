package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-registry-service/internal/domain/user"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestRedisUserCache_Set_Success(t *testing.T) {
	client, _ := setupTestRedis(t)

	logger := zaptest.NewLogger(t)
	cache := NewRedisUserCache(client, 5*time.Minute, logger)

	now := time.Now().UTC().Truncate(time.Second)
	user := &domain.User{
		ID:        1,
		Name:      "John Doe",
		Email:     "john@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := cache.Set(context.Background(), user)
	require.NoError(t, err)

	// Verify data is in Redis
	data, err := client.Get(context.Background(), "user:1").Bytes()
	require.NoError(t, err)

	var cached domain.User
	err = json.Unmarshal(data, &cached)
	require.NoError(t, err)

	assert.Equal(t, user.ID, cached.ID)
	assert.Equal(t, user.Name, cached.Name)
	assert.Equal(t, user.Email, cached.Email)
	assert.True(t, user.CreatedAt.Equal(cached.CreatedAt))
}

func TestRedisUserCache_Set_NilUser(t *testing.T) {
	client, _ := setupTestRedis(t)

	logger := zaptest.NewLogger(t)
	cache := NewRedisUserCache(client, 5*time.Minute, logger)

	err := cache.Set(context.Background(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot cache nil user")
}

func TestRedisUserCache_Set_AppliesTTL(t *testing.T) {
	client, mr := setupTestRedis(t)

	logger := zaptest.NewLogger(t)
	cache := NewRedisUserCache(client, 5*time.Minute, logger)

	err := cache.Set(context.Background(), &domain.User{ID: 1, Name: "John Doe", Email: "john@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, mr.TTL("user:1"))
}

func TestRedisUserCache_Get_Success(t *testing.T) {
	client, _ := setupTestRedis(t)

	logger := zaptest.NewLogger(t)
	cache := NewRedisUserCache(client, 5*time.Minute, logger)

	user := &domain.User{
		ID:    1,
		Name:  "John Doe",
		Email: "john@example.com",
	}
	require.NoError(t, cache.Set(context.Background(), user))

	cached, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, user.ID, cached.ID)
	assert.Equal(t, user.Name, cached.Name)
	assert.Equal(t, user.Email, cached.Email)
}

func TestRedisUserCache_Get_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)

	logger := zaptest.NewLogger(t)
	cache := NewRedisUserCache(client, 5*time.Minute, logger)

	cached, err := cache.Get(context.Background(), 99)

	// Cache miss is not an error
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Get_CorruptData(t *testing.T) {
	client, mr := setupTestRedis(t)

	logger := zaptest.NewLogger(t)
	cache := NewRedisUserCache(client, 5*time.Minute, logger)

	require.NoError(t, mr.Set("user:1", "not json"))

	cached, err := cache.Get(context.Background(), 1)

	assert.Error(t, err)
	assert.Nil(t, cached)
}

func TestRedisUserCache_Get_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)

	logger := zaptest.NewLogger(t)
	cache := NewRedisUserCache(client, 5*time.Minute, logger)

	mr.Close()

	cached, err := cache.Get(context.Background(), 1)

	assert.Error(t, err)
	assert.Nil(t, cached)
}

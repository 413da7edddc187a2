package infrastructure

import (
	"fmt"

	"user-registry-service/internal/config"
	redisclient "user-registry-service/pkg/redis"

	"go.uber.org/zap"
)

// NewRedisClient creates a new Redis client with configuration
func NewRedisClient(cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	redisConfig := redisclient.Config{
		Host:                cfg.Redis.Host,
		Port:                cfg.Redis.Port,
		Password:            cfg.Redis.Password,
		DB:                  cfg.Redis.DB,
		MaxRetries:          cfg.Redis.MaxRetries,
		PoolSize:            cfg.Redis.PoolSize,
		MinIdleConn:         cfg.Redis.MinIdleConn,
		DialTimeoutSeconds:  cfg.Redis.DialTimeoutSeconds,
		ReadTimeoutSeconds:  cfg.Redis.ReadTimeoutSeconds,
		WriteTimeoutSeconds: cfg.Redis.WriteTimeoutSeconds,
		PoolTimeoutSeconds:  cfg.Redis.PoolTimeoutSeconds,
	}

	rdb, err := redisclient.NewClient(redisConfig, l)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

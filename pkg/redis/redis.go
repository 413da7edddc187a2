package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds connection and pool settings for the Redis client.
// Timeouts are in seconds; a zero value keeps the driver default.
type Config struct {
	Host                string
	Port                string
	Password            string
	DB                  int
	MaxRetries          int
	PoolSize            int
	MinIdleConn         int
	DialTimeoutSeconds  int
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	PoolTimeoutSeconds  int
}

// Client wraps redis.Client so callers have a single place for
// connection setup and teardown.
type Client struct {
	*redis.Client
	log *zap.Logger
}

// NewClient opens a connection pool and verifies it with a ping before
// returning. An unreachable server fails construction rather than the
// first request.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConn,
		DialTimeout:  seconds(cfg.DialTimeoutSeconds),
		ReadTimeout:  seconds(cfg.ReadTimeoutSeconds),
		WriteTimeout: seconds(cfg.WriteTimeoutSeconds),
		PoolTimeout:  seconds(cfg.PoolTimeoutSeconds),
	})

	pingTimeout := seconds(cfg.DialTimeoutSeconds)
	if pingTimeout == 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Info("redis connection established",
		zap.String("addr", addr),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize),
	)

	return &Client{Client: rdb, log: log}, nil
}

func seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// Close shuts down the connection pool.
func (c *Client) Close() error {
	c.log.Info("closing redis connection")
	return c.Client.Close()
}

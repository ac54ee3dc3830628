package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// Client wraps a go-redis client with pagestream logging.
type Client struct {
	rdb    goredis.UniversalClient
	log    *logger.Logger
	cfg    Config
	closed bool
	mu     sync.Mutex
}

// New creates a Redis client from cfg. It does not contact the server.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, errors.InvalidConfig("redis.enabled", "redis is disabled")
	}
	if log == nil {
		log = logger.Get("redis")
	}

	dialTimeout, _ := time.ParseDuration(cfg.DialTimeout)
	readTimeout, _ := time.ParseDuration(cfg.ReadTimeout)
	writeTimeout, _ := time.ParseDuration(cfg.WriteTimeout)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	log.Info("Redis client created", logger.Fields(
		"addr", cfg.Addr,
		"db", cfg.DB,
		"pool_size", cfg.PoolSize,
	))

	return &Client{rdb: rdb, log: log, cfg: cfg}, nil
}

// NewFromClient wraps an existing go-redis client, e.g. one pointed at a
// test server.
func NewFromClient(rdb goredis.UniversalClient, cfg Config, log *logger.Logger) *Client {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get("redis")
	}
	return &Client{rdb: rdb, log: log, cfg: cfg}
}

// Ping verifies the Redis connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	pong, err := c.rdb.Ping(ctx).Result()
	if err != nil {
		return errors.ConnectionFailed("redis", err)
	}
	if pong != "PONG" {
		return errors.ConnectionFailed("redis", nil).WithDetail("response", pong)
	}
	return nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Close closes the Redis connection. Safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.log.Info("Closing Redis connection")
	c.closed = true
	return c.rdb.Close()
}

// Unwrap returns the underlying go-redis client for advanced operations.
func (c *Client) Unwrap() goredis.UniversalClient {
	return c.rdb
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key written by the client.
const DefaultNamespace = "scriptforge"

// Client wraps Redis operations for dispatcher state shared across restarts.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// Config holds Redis connection configuration.
type Config struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
	Namespace string `yaml:"namespace"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, namespace: namespaceOrDefault(cfg.Namespace)}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// Key helpers
func activePoolKey(namespace string) string {
	return fmt.Sprintf("%s:active_pool", namespace)
}

// LoadPoolIndex returns the last successful pool index, if one was saved.
func (c *Client) LoadPoolIndex(ctx context.Context) (int, bool, error) {
	val, err := c.rdb.Get(ctx, activePoolKey(c.namespace)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get failed: %w", err)
	}
	idx, err := ParsePoolIndex(val)
	if err != nil {
		return 0, false, err
	}
	return idx, true, nil
}

// SavePoolIndex stores the last successful pool index without expiry.
func (c *Client) SavePoolIndex(ctx context.Context, idx int) error {
	if err := c.rdb.Set(ctx, activePoolKey(c.namespace), strconv.Itoa(idx), 0).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// ParsePoolIndex parses a stored pool index.
func ParsePoolIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid pool index %q: %w", s, err)
	}
	if idx < 0 {
		return 0, fmt.Errorf("invalid pool index %q: negative", s)
	}
	return idx, nil
}

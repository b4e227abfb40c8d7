// Package redis holds the shared Redis connection behind replay protection
// and the rate limiter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tollgate/internal/platform/config"
)

// defaultPingTimeout bounds a health ping when no read timeout is configured.
const defaultPingTimeout = time.Second

// Client is the process-wide Redis connection. Nonce claims and rate-limit
// windows share its pool.
type Client struct {
	*redis.Client
	pingTimeout time.Duration
}

// New connects using cfg and verifies the server answers within the dial
// timeout. It returns nil, nil when no URL is configured so callers fall back
// to in-process stores.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	c := &Client{Client: redis.NewClient(opts), pingTimeout: pingTimeout(cfg)}

	connectCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout+c.pingTimeout)
	defer cancel()
	if err := c.Ping(connectCtx).Err(); err != nil {
		_ = c.Client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return c, nil
}

func pingTimeout(cfg config.RedisConfig) time.Duration {
	if cfg.ReadTimeout > 0 {
		return cfg.ReadTimeout
	}
	return defaultPingTimeout
}

// Health pings the server, giving up after the read timeout so a stalled
// Redis cannot hang the health endpoint.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

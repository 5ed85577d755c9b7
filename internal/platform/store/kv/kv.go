// Package kv opens the Redis client that holds recipient state, buffers, locks and job queues
package kv

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the Redis connection
type Config struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client is the surface repos depend on; *redis.Client satisfies it
type Client = redis.UniversalClient

var newClient = func(o *redis.Options) Client { return redis.NewClient(o) }

// Open builds a client from cfg; connectivity is checked by the store opener
func Open(cfg Config) Client {
	o := &redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.DialTimeout > 0 {
		o.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		o.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		o.WriteTimeout = cfg.WriteTimeout
	}
	return newClient(o)
}

// Ping issues PING
func Ping(ctx context.Context, c Client) error {
	return c.Ping(ctx).Err()
}

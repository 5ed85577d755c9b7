package store

import (
	"context"
	"fmt"
	"time"

	"ghdigest/internal/platform/store/kv"
	"ghdigest/internal/platform/store/pg"
)

const (
	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pingWithBackoff retries ping with doubling delays up to attempts times
func pingWithBackoff(ctx context.Context, attempts int, timeout time.Duration, ping func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = ping(pctx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, backoffCeiling)
	}
	return fmt.Errorf("ping failed after %d attempts: %w", attempts, lastErr)
}

func openKV(ctx context.Context, cfg Config, s *Store) (kv.Client, error) {
	c := kv.Open(kv.Config{
		Addr:     cfg.RDS.Addr,
		Username: cfg.RDS.Username,
		Password: cfg.RDS.Password,
		DB:       cfg.RDS.DB,
		PoolSize: cfg.RDS.PoolSize,
	})
	err := pingWithBackoff(ctx, cfg.RDS.PingRetries, cfg.RDS.PingTimeout, func(ctx context.Context) error {
		return kv.Ping(ctx, c)
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.RDS.Addr, err)
	}
	s.Log.Info().Str("addr", cfg.RDS.Addr).Int("db", cfg.RDS.DB).Msg("redis connected")
	return c, nil
}

func openPG(ctx context.Context, cfg Config, s *Store) (*pg.PG, error) {
	p, err := pg.Open(ctx, pg.Config{URL: cfg.PG.URL, MaxConns: cfg.PG.MaxConns, AppName: cfg.AppName}, nil)
	if err != nil {
		return nil, err
	}
	if err := pingWithBackoff(ctx, cfg.PG.PingRetries, cfg.PG.PingTimeout, p.Ping); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	s.Log.Info().Msg("postgres connected")
	return p, nil
}

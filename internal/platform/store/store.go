// Package store opens the storage backends: Redis (required) and Postgres (optional)
package store

import (
	"context"
	"errors"
	"fmt"

	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/store/kv"
	"ghdigest/internal/platform/store/pg"
)

// Store is the backend facade; a zero value is safe but has no clients
type Store struct {
	Log logger.Logger

	// KV is the redis client, nil only in zero-value stores
	KV kv.Client

	// PG is the audit pool, nil when disabled
	PG *pg.PG
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open connects every enabled backend; a failure closes what was already opened
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("component", "store").Logger()

	c, err := openKV(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.KV = c

	if cfg.PG.Enabled {
		p, err := openPG(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.PG = p
	}
	return s, nil
}

// Guard pings every configured backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if s.KV != nil {
		if err := kv.Ping(ctx, s.KV); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pg: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes all open backends
func (s *Store) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.KV != nil {
		if err := s.KV.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.PG.Close()
	return errors.Join(errs...)
}

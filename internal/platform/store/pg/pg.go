// Package pg opens the optional Postgres pool used for the delivery audit log
package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool
type Config struct {
	URL      string
	MaxConns int32
	AppName  string
}

// Querier is the query surface repos use; *pgxpool.Pool satisfies it
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG wraps a pool
type PG struct {
	Pool *pgxpool.Pool
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg, applies the optional mutator and builds the pool.
// It does not ping; the store opener does that with backoff
func Open(ctx context.Context, cfg Config, mut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		if pcfg.ConnConfig.RuntimeParams == nil {
			pcfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if mut != nil {
		mut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool}, nil
}

// Ping checks the pool
func (p *PG) Ping(ctx context.Context) error { return p.Pool.Ping(ctx) }

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

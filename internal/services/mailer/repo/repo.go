// Package repo provides the delivery guard's Redis commit and the optional Postgres audit log
package repo

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ghdigest/internal/core/recipient"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/store/kv"
)

// Guard reads and writes the idempotency record
type Guard struct {
	kv kv.Client
}

// NewGuard constructs the guard repo
func NewGuard(c kv.Client) *Guard { return &Guard{kv: c} }

// Sent reports whether member already has a score in lockKey
func (g *Guard) Sent(ctx context.Context, lockKey, member string) (bool, error) {
	_, err := g.kv.ZScore(ctx, lockKey, member).Result()
	switch {
	case perr.IsNil(err):
		return false, nil
	case err != nil:
		return false, perr.FromKVf(err, "zscore %s", lockKey)
	}
	return true, nil
}

// Commit records a finished delivery in one MULTI/EXEC. Empty keys are skipped
func (g *Guard) Commit(ctx context.Context, userKey, deleteKey, lockKey, member string, at time.Time) error {
	_, err := g.kv.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if userKey != "" {
			p.HSet(ctx, userKey, recipient.FieldLastSent, strconv.FormatInt(at.Unix(), 10))
		}
		if deleteKey != "" {
			p.Del(ctx, deleteKey)
		}
		if lockKey != "" && member != "" {
			p.ZAdd(ctx, lockKey, redis.Z{Score: float64(at.Unix()), Member: member})
		}
		return nil
	})
	return perr.FromKV(err, "commit delivery")
}

// Package repo provides the Redis list operations behind the jobs queue
package repo

import (
	"context"

	"github.com/redis/go-redis/v9"

	"ghdigest/internal/core/keys"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/store/kv"
)

// Repo manipulates <ns>:queue:<q>, its inflight list and its dead list
type Repo struct {
	kv   kv.Client
	keys keys.Space
}

// New constructs a jobs repository
func New(c kv.Client, ks keys.Space) *Repo { return &Repo{kv: c, keys: ks} }

// Push LPUSHes raw onto queue q
func (r *Repo) Push(ctx context.Context, q, raw string) error {
	return perr.FromKVf(r.kv.LPush(ctx, r.keys.Queue(q), raw).Err(), "enqueue %s", q)
}

// Claim moves the oldest entry of q to its inflight list; ok is false when q is empty
func (r *Repo) Claim(ctx context.Context, q string) (string, bool, error) {
	raw, err := r.kv.RPopLPush(ctx, r.keys.Queue(q), r.keys.Inflight(q)).Result()
	if perr.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, perr.FromKVf(err, "claim %s", q)
	}
	return raw, true, nil
}

// Ack drops raw from inflight
func (r *Repo) Ack(ctx context.Context, q, raw string) error {
	return perr.FromKVf(r.kv.LRem(ctx, r.keys.Inflight(q), 1, raw).Err(), "ack %s", q)
}

// Requeue atomically pushes next onto q and drops raw from inflight
func (r *Repo) Requeue(ctx context.Context, q, raw, next string) error {
	return r.move(ctx, q, r.keys.Queue(q), raw, next)
}

// Bury atomically pushes next onto the dead list and drops raw from inflight
func (r *Repo) Bury(ctx context.Context, q, raw, next string) error {
	return r.move(ctx, q, r.keys.Dead(q), raw, next)
}

func (r *Repo) move(ctx context.Context, q, dst, raw, next string) error {
	_, err := r.kv.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, dst, next)
		p.LRem(ctx, r.keys.Inflight(q), 1, raw)
		return nil
	})
	return perr.FromKVf(err, "move job on %s", q)
}

// Recover pushes every inflight entry of q back onto q
func (r *Repo) Recover(ctx context.Context, q string) (int, error) {
	n := 0
	for {
		_, err := r.kv.RPopLPush(ctx, r.keys.Inflight(q), r.keys.Queue(q)).Result()
		if perr.IsNil(err) {
			return n, nil
		}
		if err != nil {
			return n, perr.FromKVf(err, "recover %s", q)
		}
		n++
	}
}

// Len reports queued, inflight and dead counts for q
func (r *Repo) Len(ctx context.Context, q string) (queued, inflight, dead int64, err error) {
	cmds, err := r.kv.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.LLen(ctx, r.keys.Queue(q))
		p.LLen(ctx, r.keys.Inflight(q))
		p.LLen(ctx, r.keys.Dead(q))
		return nil
	})
	if err != nil {
		return 0, 0, 0, perr.FromKVf(err, "queue length %s", q)
	}
	return cmds[0].(*redis.IntCmd).Val(), cmds[1].(*redis.IntCmd).Val(), cmds[2].(*redis.IntCmd).Val(), nil
}

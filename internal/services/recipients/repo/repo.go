// Package repo provides the Redis backed recipients repository
package repo

import (
	"context"

	"ghdigest/internal/core/keys"
	"ghdigest/internal/core/recipient"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/store/kv"
)

// Repo reads and scans recipient hashes
type Repo struct {
	kv   kv.Client
	keys keys.Space
}

// New constructs a recipients repository
func New(c kv.Client, ks keys.Space) *Repo { return &Repo{kv: c, keys: ks} }

// Get decodes the hash for id; a missing hash is NotFound
func (r *Repo) Get(ctx context.Context, id string) (recipient.Recipient, error) {
	h, err := r.kv.HGetAll(ctx, r.keys.User(id)).Result()
	if err != nil {
		return recipient.Recipient{}, perr.FromKVf(err, "load recipient %s", id)
	}
	rec, err := recipient.Decode(h)
	if err != nil {
		return recipient.Recipient{}, perr.WithOp(err, "recipients.get")
	}
	return rec, nil
}

// ScanIDs walks <ns>:users:* with SCAN so large keyspaces never block the server
func (r *Repo) ScanIDs(ctx context.Context, batch int64, fn func(ids []string) error) error {
	if batch <= 0 {
		batch = 100
	}
	var cursor uint64
	for {
		ks, next, err := r.kv.Scan(ctx, cursor, r.keys.UserPattern(), batch).Result()
		if err != nil {
			return perr.FromKV(err, "scan recipients")
		}
		if len(ks) > 0 {
			ids := make([]string, 0, len(ks))
			for _, k := range ks {
				ids = append(ids, keys.IDOf(k))
			}
			if err := fn(ids); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// unsubscribeScript flips the flag only on an existing hash
const unsubscribeScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], ARGV[1], '1')
return 1`

// Unsubscribe sets unsubscribed=1; an unknown id is NotFound
func (r *Repo) Unsubscribe(ctx context.Context, id string) error {
	n, err := r.kv.Eval(ctx, unsubscribeScript, []string{r.keys.User(id)}, recipient.FieldUnsubscribed).Int()
	if err != nil {
		return perr.FromKVf(err, "unsubscribe %s", id)
	}
	if n == 0 {
		return perr.NotFoundf("recipient %s not found", id)
	}
	return nil
}

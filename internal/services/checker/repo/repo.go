// Package repo provides the Redis state the poller and handoff own
package repo

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ghdigest/internal/core/keys"
	"ghdigest/internal/core/recipient"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/store/kv"
	"ghdigest/internal/services/checker/domain"
)

// Lease is a held check lock; Token proves ownership
type Lease struct {
	Key   string
	Token string
}

// Repo is the checker's view of the key-value store
type Repo struct {
	kv   kv.Client
	keys keys.Space
}

// New constructs a checker repository
func New(c kv.Client, ks keys.Space) *Repo { return &Repo{kv: c, keys: ks} }

const (
	releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then return redis.call('DEL', KEYS[1]) end
return 0`

	renewScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then return redis.call('PEXPIRE', KEYS[1], ARGV[2]) end
return 0`

	// cursorScript only ever moves last_event_id forward
	cursorScript = `
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0') or 0
local nxt = tonumber(ARGV[2])
if nxt > cur then redis.call('HSET', KEYS[1], ARGV[1], ARGV[2]) return 1 end
return 0`
)

// AcquireLock takes the check lock with SET NX PX; ok is false when another run holds it
func (r *Repo) AcquireLock(ctx context.Context, id string, ttl time.Duration) (Lease, bool, error) {
	l := Lease{Key: r.keys.CheckLock(id), Token: uuid.NewString()}
	ok, err := r.kv.SetNX(ctx, l.Key, l.Token, ttl).Result()
	if err != nil {
		return Lease{}, false, perr.FromKVf(err, "acquire check lock %s", id)
	}
	return l, ok, nil
}

// Release drops the lock only if l still owns it
func (r *Repo) Release(ctx context.Context, l Lease) error {
	err := r.kv.Eval(ctx, releaseScript, []string{l.Key}, l.Token).Err()
	return perr.FromKV(err, "release check lock")
}

// Renew extends the lock while l still owns it; false means it was lost
func (r *Repo) Renew(ctx context.Context, l Lease, ttl time.Duration) (bool, error) {
	n, err := r.kv.Eval(ctx, renewScript, []string{l.Key}, l.Token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, perr.FromKV(err, "renew check lock")
	}
	return n == 1, nil
}

// Commit writes the followers snapshot, the first-check flag and releases l in one pipeline
func (r *Repo) Commit(ctx context.Context, id string, followers []string, firstRun bool, l Lease) error {
	user := r.keys.User(id)
	_, err := r.kv.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, user, recipient.FieldFollowers, recipient.EncodeFollowers(followers))
		if firstRun {
			p.HSet(ctx, user, recipient.FieldFirstCheck, "1")
		}
		p.Eval(ctx, releaseScript, []string{l.Key}, l.Token)
		return nil
	})
	return perr.FromKVf(err, "commit check %s", id)
}

// Batch is one append. Cursor > 0 moves last_event_id forward in the same transaction,
// so a failed append never leaves the cursor past events that were not stored
type Batch struct {
	Pending    []string
	History    []string
	HistoryCap int64
	Cursor     int64
}

// Append pushes b's entries in order inside MULTI/EXEC; HistoryCap > 0 trims history
func (r *Repo) Append(ctx context.Context, id string, b Batch) error {
	if len(b.Pending) == 0 && len(b.History) == 0 && b.Cursor <= 0 {
		return nil
	}
	_, err := r.kv.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(b.Pending) > 0 {
			p.LPush(ctx, r.keys.Pending(id), toAny(b.Pending)...)
		}
		if len(b.History) > 0 {
			p.LPush(ctx, r.keys.History(id), toAny(b.History)...)
			if b.HistoryCap > 0 {
				p.LTrim(ctx, r.keys.History(id), 0, b.HistoryCap-1)
			}
		}
		if b.Cursor > 0 {
			p.Eval(ctx, cursorScript, []string{r.keys.User(id)}, recipient.FieldLastEventID, b.Cursor)
		}
		return nil
	})
	return perr.FromKVf(err, "append events %s", id)
}

// Promote renames pending to processing with RENAMENX so an uncleared processing buffer is never overwritten
func (r *Repo) Promote(ctx context.Context, id string) (domain.Promotion, error) {
	ok, err := r.kv.RenameNX(ctx, r.keys.Pending(id), r.keys.Processing(id)).Result()
	switch {
	case err != nil && perr.IsNoSuchKey(err):
		return domain.NothingPending, nil
	case err != nil:
		return domain.NothingPending, perr.FromKVf(err, "promote pending %s", id)
	case !ok:
		return domain.ProcessingExists, nil
	}
	return domain.Promoted, nil
}

// MarkQueued records when the last handoff happened
func (r *Repo) MarkQueued(ctx context.Context, id string, at time.Time) error {
	err := r.kv.HSet(ctx, r.keys.User(id), recipient.FieldLastQueued, strconv.FormatInt(at.Unix(), 10)).Err()
	return perr.FromKVf(err, "mark queued %s", id)
}

// ProcessingKey exposes the processing buffer name for id
func (r *Repo) ProcessingKey(id string) string { return r.keys.Processing(id) }

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

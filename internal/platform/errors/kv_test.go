package errors

import (
	"context"
	stderrs "errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestKVErrorCode_RealReplies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rdb := newRedis(t)

	_, err := rdb.Get(ctx, "missing").Result()
	if !IsNil(err) || KVErrorCode(err) != ErrorCodeNotFound {
		t.Fatalf("GET missing: %v -> %v", err, KVErrorCode(err))
	}

	err = rdb.Rename(ctx, "missing", "other").Err()
	if !IsNoSuchKey(err) || KVErrorCode(err) != ErrorCodeNotFound {
		t.Fatalf("RENAME missing: %v -> %v", err, KVErrorCode(err))
	}

	if err := rdb.Set(ctx, "str", "v", 0).Err(); err != nil {
		t.Fatalf("SET: %v", err)
	}
	err = rdb.LPush(ctx, "str", "x").Err()
	if KVErrorCode(err) != ErrorCodeConfig {
		t.Fatalf("WRONGTYPE: %v -> %v", err, KVErrorCode(err))
	}
}

func TestKVErrorCode_ConnectionErrors(t *testing.T) {
	t.Parallel()
	if KVErrorCode(redis.ErrClosed) != ErrorCodeUnavailable {
		t.Fatalf("ErrClosed should be unavailable")
	}
	if !IsRetryableKV(FromKV(redis.ErrClosed, "lpush")) {
		t.Fatalf("wrapped ErrClosed should be retryable")
	}
	if IsRetryableKV(redis.Nil) {
		t.Fatalf("redis.Nil is not retryable")
	}
	if KVErrorCode(stderrs.New("other")) != ErrorCodeKV {
		t.Fatalf("unknown errors default to KV")
	}
	if FromKV(nil, "x") != nil || FromKVf(nil, "x %d", 1) != nil {
		t.Fatalf("nil passthrough")
	}
}

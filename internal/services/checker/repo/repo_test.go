package repo

import (
	"context"
	"testing"
	"time"

	"ghdigest/internal/core/keys"
	"ghdigest/internal/core/recipient"
	"ghdigest/internal/platform/store/kv/kvtest"
	"ghdigest/internal/services/checker/domain"
)

func TestLock_AcquireReleaseRenew(t *testing.T) {
	t.Parallel()
	mr, c := kvtest.New(t)
	r := New(c, keys.New("ns"))
	ctx := context.Background()

	l, ok, err := r.AcquireLock(ctx, "42", 210*time.Second)
	if err != nil || !ok {
		t.Fatalf("AcquireLock: ok=%v err=%v", ok, err)
	}
	if l.Key != "ns:locks:notifications_checker:42" || l.Token == "" {
		t.Fatalf("lease = %+v", l)
	}
	if ttl := mr.TTL(l.Key); ttl != 210*time.Second {
		t.Fatalf("ttl = %v", ttl)
	}

	if _, ok, _ := r.AcquireLock(ctx, "42", time.Minute); ok {
		t.Fatalf("second acquire should be refused")
	}

	stranger := Lease{Key: l.Key, Token: "someone-else"}
	if ok, err := r.Renew(ctx, stranger, time.Hour); err != nil || ok {
		t.Fatalf("stranger renew: ok=%v err=%v", ok, err)
	}
	if err := r.Release(ctx, stranger); err != nil {
		t.Fatalf("stranger release: %v", err)
	}
	if !mr.Exists(l.Key) {
		t.Fatalf("a non-holder release must not drop the lock")
	}

	if ok, err := r.Renew(ctx, l, time.Hour); err != nil || !ok {
		t.Fatalf("holder renew: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(l.Key); ttl != time.Hour {
		t.Fatalf("renewed ttl = %v", ttl)
	}
	if err := r.Release(ctx, l); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if mr.Exists(l.Key) {
		t.Fatalf("lock should be gone")
	}
}

func TestLock_ExpiresWithoutRelease(t *testing.T) {
	t.Parallel()
	mr, c := kvtest.New(t)
	r := New(c, keys.New("ns"))
	ctx := context.Background()

	if _, ok, _ := r.AcquireLock(ctx, "1", 210*time.Second); !ok {
		t.Fatalf("acquire")
	}
	mr.FastForward(211 * time.Second)
	if _, ok, _ := r.AcquireLock(ctx, "1", 210*time.Second); !ok {
		t.Fatalf("an expired lock should be free")
	}
}

func TestAppend_CursorOnlyMovesForward(t *testing.T) {
	t.Parallel()
	mr, c := kvtest.New(t)
	r := New(c, keys.New("ns"))
	ctx := context.Background()

	for _, s := range []struct {
		in   int64
		want string
	}{
		{100, "100"},
		{90, "100"},
		{100, "100"},
		{150, "150"},
	} {
		if err := r.Append(ctx, "42", Batch{Cursor: s.in}); err != nil {
			t.Fatalf("Append(cursor %d): %v", s.in, err)
		}
		if got := mr.HGet("ns:users:42", recipient.FieldLastEventID); got != s.want {
			t.Fatalf("Append(cursor %d): stored=%s, want %s", s.in, got, s.want)
		}
	}
	if mr.Exists("ns:events:batch:42") || mr.Exists("ns:events:42") {
		t.Fatalf("cursor-only batches must not touch the buffers")
	}
}

func TestCommit(t *testing.T) {
	t.Parallel()
	mr, c := kvtest.New(t)
	r := New(c, keys.New("ns"))
	ctx := context.Background()

	l, _, _ := r.AcquireLock(ctx, "42", time.Minute)
	if err := r.Commit(ctx, "42", []string{"a", "b"}, true, l); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := mr.HGet("ns:users:42", recipient.FieldFollowers); got != `["a","b"]` {
		t.Fatalf("followers = %s", got)
	}
	if mr.HGet("ns:users:42", recipient.FieldFirstCheck) != "1" || mr.Exists(l.Key) {
		t.Fatalf("first check flag or lock wrong")
	}

	mr.HDel("ns:users:42", recipient.FieldFirstCheck)
	l, _, _ = r.AcquireLock(ctx, "42", time.Minute)
	if err := r.Commit(ctx, "42", nil, false, l); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if mr.HGet("ns:users:42", recipient.FieldFirstCheck) != "" || mr.HGet("ns:users:42", recipient.FieldFollowers) != "[]" {
		t.Fatalf("non-first commit should only write the snapshot")
	}
}

func TestAppend(t *testing.T) {
	t.Parallel()
	mr, c := kvtest.New(t)
	r := New(c, keys.New("ns"))
	ctx := context.Background()

	if err := r.Append(ctx, "42", Batch{}); err != nil {
		t.Fatalf("empty Append: %v", err)
	}
	if mr.Exists("ns:users:42") {
		t.Fatalf("empty Append wrote state")
	}
	b := Batch{Pending: []string{"e1", "e2"}, History: []string{"e1", "e2", "e3"}, HistoryCap: 2, Cursor: 120}
	if err := r.Append(ctx, "42", b); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := mr.HGet("ns:users:42", recipient.FieldLastEventID); got != "120" {
		t.Fatalf("cursor = %s", got)
	}
	pending, _ := mr.List("ns:events:batch:42")
	if len(pending) != 2 || pending[0] != "e2" || pending[1] != "e1" {
		t.Fatalf("pending = %v", pending)
	}
	history, _ := mr.List("ns:events:42")
	if len(history) != 2 || history[0] != "e3" {
		t.Fatalf("history should be capped newest first: %v", history)
	}
}

func TestPromote(t *testing.T) {
	t.Parallel()
	mr, c := kvtest.New(t)
	r := New(c, keys.New("ns"))
	ctx := context.Background()

	if p, err := r.Promote(ctx, "42"); err != nil || p != domain.NothingPending {
		t.Fatalf("missing pending: p=%v err=%v", p, err)
	}

	_, _ = mr.Lpush("ns:events:batch:42", "a")
	if p, err := r.Promote(ctx, "42"); err != nil || p != domain.Promoted {
		t.Fatalf("promote: p=%v err=%v", p, err)
	}
	if mr.Exists("ns:events:batch:42") || !mr.Exists(r.ProcessingKey("42")) {
		t.Fatalf("rename did not happen")
	}

	_, _ = mr.Lpush("ns:events:batch:42", "b")
	if p, err := r.Promote(ctx, "42"); err != nil || p != domain.ProcessingExists {
		t.Fatalf("occupied target: p=%v err=%v", p, err)
	}
	processing, _ := mr.List(r.ProcessingKey("42"))
	if len(processing) != 1 || processing[0] != "a" {
		t.Fatalf("processing buffer was touched: %v", processing)
	}

	at := time.Unix(1700000000, 0)
	if err := r.MarkQueued(ctx, "42", at); err != nil {
		t.Fatalf("MarkQueued: %v", err)
	}
	if mr.HGet("ns:users:42", recipient.FieldLastQueued) != "1700000000" {
		t.Fatalf("last queued not stored")
	}
}

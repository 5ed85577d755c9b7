// Package repo reads and drops processing buffers
package repo

import (
	"context"

	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/store/kv"
)

// Buffers is the builder's view of the key-value store
type Buffers struct {
	kv kv.Client
}

// New constructs the repo
func New(c kv.Client) *Buffers { return &Buffers{kv: c} }

// Read returns the whole buffer, newest first
func (b *Buffers) Read(ctx context.Context, key string) ([]string, error) {
	xs, err := b.kv.LRange(ctx, key, 0, -1).Result()
	return xs, perr.FromKVf(err, "read buffer %s", key)
}

// Drop deletes a buffer that will never be delivered
func (b *Buffers) Drop(ctx context.Context, key string) error {
	return perr.FromKVf(b.kv.Del(ctx, key).Err(), "drop buffer %s", key)
}

// Package domain defines the public ports for the recipients service
package domain

import (
	"context"

	"ghdigest/internal/core/recipient"
)

// ReaderPort loads one recipient hash
type ReaderPort interface {
	Get(ctx context.Context, id string) (recipient.Recipient, error)
}

// ScannerPort walks every stored recipient id in batches
type ScannerPort interface {
	ScanIDs(ctx context.Context, batch int64, fn func(ids []string) error) error
}

// PreferencesPort records opt-outs made outside the poller
type PreferencesPort interface {
	Unsubscribe(ctx context.Context, id string) error
}

// Package domain defines the public ports for the checker service
package domain

import (
	"context"
	"time"

	"ghdigest/internal/adapters/github"
	"ghdigest/internal/core/recipient"
)

// CheckerPort runs the poller for one recipient
type CheckerPort interface {
	Check(ctx context.Context, userID string, firstTime bool) (Result, error)
}

// HandoffPort promotes a recipient's pending buffer when delivery is due
type HandoffPort interface {
	Handoff(ctx context.Context, rec recipient.Recipient, now time.Time) (HandoffResult, error)
}

// EventSource is the upstream activity API, authenticated per recipient
type EventSource interface {
	ReceivedEvents(ctx context.Context, token, login string, fn func([]github.Event) (bool, error)) error
	Followers(ctx context.Context, token, login string, fn func([]github.User) (bool, error)) error
	UserByLogin(ctx context.Context, token, login string) (github.User, error)
}

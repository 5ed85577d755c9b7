package domain

import (
	"context"

	json "github.com/goccy/go-json"

	perr "ghdigest/internal/platform/errors"
)

// Queue names
const (
	QueueChecker = "checker"
	QueueBuilder = "builder"
	QueueMailer  = "mailer"
)

// Job kinds
const (
	KindCheck   = "check"
	KindBuild   = "build"
	KindDeliver = "deliver"
)

// Job is one queue entry as stored in Redis
type Job struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Attempt    int             `json:"attempt"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt int64           `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

// Decode unmarshals the payload into v; failures are permanent
func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "decode %s payload", j.Kind)
	}
	return nil
}

// Handler processes one job; a nil error acks it
type Handler func(ctx context.Context, j Job) error

// Policy controls how a queue is consumed
type Policy struct {
	Workers int
	// Retry false sends failures straight to the dead list
	Retry bool
}

// CheckPayload asks the poller to check one recipient
type CheckPayload struct {
	UserID    string `json:"user_id"`
	FirstTime bool   `json:"first_time,omitempty"`
}

// BuildPayload points the builder at a processing buffer
type BuildPayload struct {
	Key string `json:"key"`
}

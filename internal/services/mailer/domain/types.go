package domain

import (
	"ghdigest/internal/adapters/mail"
)

// Request is the deliver job payload the builder produces
type Request struct {
	To          string      `json:"to"`
	Subject     string      `json:"subject"`
	ContentType string      `json:"content_type"`
	Template    string      `json:"template"`
	Locals      mail.Locals `json:"locals"`
	// DeleteKey is the processing buffer removed once the mail is out
	DeleteKey string `json:"delete_key,omitempty"`
	// LockKey is the idempotency ZSET; LockID the ordered identities of this digest
	LockKey string   `json:"lock_key,omitempty"`
	LockID  []string `json:"lock_id,omitempty"`
	UserKey string   `json:"user_key,omitempty"`
}

// Outcome reports what Deliver did
type Outcome struct {
	AlreadySent bool
	Sent        bool
}

// Delivery is one audit row
type Delivery struct {
	RecipientID string
	LockID      string
	Subject     string
	Events      int
}

// Package domain defines the unsubscribe link port
package domain

import "context"

// Link is a decoded unsubscribe link
type Link struct {
	ID     string
	Expiry int64
	MAC    string
}

// Result is returned once the opt-out is stored
type Result struct {
	ID           string `json:"id"`
	Unsubscribed bool   `json:"unsubscribed"`
}

// UnsubscribePort verifies a link and records the opt-out
type UnsubscribePort interface {
	Unsubscribe(ctx context.Context, l Link) (Result, error)
}

// Package domain defines the public ports for the mailer service
package domain

import "context"

// DeliverPort sends a digest at most once per identity list
type DeliverPort interface {
	Deliver(ctx context.Context, req Request) (Outcome, error)
}

// Package domain defines the public ports for the jobs service
package domain

import "context"

// EnqueuerPort is the non-blocking producer side of the queue
type EnqueuerPort interface {
	Enqueue(ctx context.Context, queue, kind string, payload any) (string, error)
}

// RunnerPort consumes queues with registered handlers
type RunnerPort interface {
	Register(queue string, h Handler, p Policy)
	// Recover moves entries a crashed worker left in flight back onto their queues
	Recover(ctx context.Context) (int, error)
	Run(ctx context.Context) error
}

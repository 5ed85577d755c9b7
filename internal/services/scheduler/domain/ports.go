// Package domain defines the public ports for the scheduler
package domain

import "context"

// TickerPort enqueues one round of check jobs
type TickerPort interface {
	Tick(ctx context.Context) (int, error)
}

// RunnerPort fires ticks on the configured schedule until ctx ends
type RunnerPort interface {
	Run(ctx context.Context) error
}

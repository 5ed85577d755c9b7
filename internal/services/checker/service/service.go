// Package service implements the poller and the batch handoff
package service

import (
	"context"
	"time"

	"ghdigest/internal/core/recipient"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/services/checker/domain"
	"ghdigest/internal/services/checker/repo"
	jobsdom "ghdigest/internal/services/jobs/domain"
	recdom "ghdigest/internal/services/recipients/domain"
)

// Store is the state the checker needs; *repo.Repo satisfies it
type Store interface {
	AcquireLock(ctx context.Context, id string, ttl time.Duration) (repo.Lease, bool, error)
	Release(ctx context.Context, l repo.Lease) error
	Renew(ctx context.Context, l repo.Lease, ttl time.Duration) (bool, error)
	Commit(ctx context.Context, id string, followers []string, firstRun bool, l repo.Lease) error
	Append(ctx context.Context, id string, b repo.Batch) error
	Promote(ctx context.Context, id string) (domain.Promotion, error)
	MarkQueued(ctx context.Context, id string, at time.Time) error
	ProcessingKey(id string) string
}

// Config controls a poller run
type Config struct {
	LockTTL time.Duration
	// HistoryCap bounds the history list; zero keeps everything
	HistoryCap int64
	// ConflictRebuild is how long a processing buffer may sit before its build job is queued again
	ConflictRebuild time.Duration
}

// Svc implements CheckerPort and HandoffPort
type Svc struct {
	store      Store
	src        domain.EventSource
	recipients recdom.ReaderPort
	jobs       jobsdom.EnqueuerPort
	cfg        Config
	log        logger.Logger
	em         metrics.Emitter
	now        func() time.Time
}

// New constructs the service
func New(store Store, src domain.EventSource, recipients recdom.ReaderPort, jobs jobsdom.EnqueuerPort, cfg Config, em metrics.Emitter) *Svc {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 210 * time.Second
	}
	if cfg.ConflictRebuild <= 0 {
		cfg.ConflictRebuild = time.Hour
	}
	if em == nil {
		em = metrics.Nop{}
	}
	return &Svc{
		store:      store,
		src:        src,
		recipients: recipients,
		jobs:       jobs,
		cfg:        cfg,
		log:        *logger.Named("checker"),
		em:         em,
		now:        time.Now,
	}
}

var (
	_ domain.CheckerPort = (*Svc)(nil)
	_ domain.HandoffPort = (*Svc)(nil)
)

// Due reports whether a recipient with frequency f, last handed off at lastQueued, may be handed off at now
func Due(f recipient.Frequency, lastQueued, now time.Time) bool {
	w := f.Window()
	if w == 0 || lastQueued.IsZero() {
		return true
	}
	return !lastQueued.After(now.Add(-w))
}

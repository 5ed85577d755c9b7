// Package service fans a cron tick out into one check job per recipient
package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	jobsdom "ghdigest/internal/services/jobs/domain"
	recdom "ghdigest/internal/services/recipients/domain"
	"ghdigest/internal/services/scheduler/domain"
)

// Config controls the schedule
type Config struct {
	Spec       string
	ScanBatch  int64
	RunOnStart bool
	// TickTimeout bounds one tick; zero means none
	TickTimeout time.Duration
}

// Svc implements TickerPort and RunnerPort
type Svc struct {
	scanner recdom.ScannerPort
	jobs    jobsdom.EnqueuerPort
	cfg     Config
	parser  cron.Parser
	log     logger.Logger
	em      metrics.Emitter
	running atomic.Bool
}

// New constructs the service
func New(scanner recdom.ScannerPort, jobs jobsdom.EnqueuerPort, cfg Config, em metrics.Emitter) *Svc {
	if cfg.Spec == "" {
		cfg.Spec = "@every 5m"
	}
	if cfg.ScanBatch <= 0 {
		cfg.ScanBatch = 500
	}
	if em == nil {
		em = metrics.Nop{}
	}
	return &Svc{
		scanner: scanner,
		jobs:    jobs,
		cfg:     cfg,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		log:     *logger.Named("scheduler"),
		em:      em,
	}
}

var (
	_ domain.TickerPort = (*Svc)(nil)
	_ domain.RunnerPort = (*Svc)(nil)
)

// Tick enqueues a check job for every stored recipient. A tick that starts while
// the previous one is still scanning does nothing
func (s *Svc) Tick(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Info().Msg("previous tick still running, skipping")
		return 0, nil
	}
	defer s.running.Store(false)

	if s.cfg.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TickTimeout)
		defer cancel()
	}

	n := 0
	err := s.scanner.ScanIDs(ctx, s.cfg.ScanBatch, func(ids []string) error {
		for _, id := range ids {
			if _, err := s.jobs.Enqueue(ctx, jobsdom.QueueChecker, jobsdom.KindCheck, jobsdom.CheckPayload{UserID: id}); err != nil {
				return err
			}
			n++
			s.em.Inc(metrics.SchedulerEnqueued)
		}
		return nil
	})
	if err != nil {
		return n, perr.WithOp(err, "scheduler.tick")
	}
	s.log.Debug().Int("enqueued", n).Msg("tick done")
	return n, nil
}

// Run schedules Tick on cfg.Spec and blocks until ctx is done
func (s *Svc) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.cfg.Spec, func() { s.tick(ctx) }); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeConfig, "scheduler: bad spec %q", s.cfg.Spec)
	}
	if s.cfg.RunOnStart {
		go s.tick(ctx)
	}
	c.Start()
	s.log.Info().Str("spec", s.cfg.Spec).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
	return ctx.Err()
}

func (s *Svc) tick(ctx context.Context) {
	if _, err := s.Tick(ctx); err != nil {
		s.log.Error().Err(err).Msg("tick failed")
	}
}

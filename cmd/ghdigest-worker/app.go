package main

import (
	"context"
	"errors"
	"sync"

	"ghdigest/internal/adapters/mail"
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"

	buildermod "ghdigest/internal/services/builder/module"
	checkerdom "ghdigest/internal/services/checker/domain"
	checkermod "ghdigest/internal/services/checker/module"
	jobsdom "ghdigest/internal/services/jobs/domain"
	jobsmod "ghdigest/internal/services/jobs/module"
	mailermod "ghdigest/internal/services/mailer/module"
	recmod "ghdigest/internal/services/recipients/module"
	schedom "ghdigest/internal/services/scheduler/domain"
	schedmod "ghdigest/internal/services/scheduler/module"
)

// worker roles; the queue roles share their queue's name
const (
	modeAll       = "all"
	modeScheduler = "scheduler"
)

type app struct {
	jobs      *jobsmod.Module
	runner    jobsdom.RunnerPort
	mailer    *mailermod.Module
	scheduler schedom.RunnerPort
	handlers  map[string]jobsdom.Handler

	queues   []string
	schedule bool
}

// wire builds every module over deps; nothing runs until start
func wire(deps modkit.Deps, src checkerdom.EventSource, provider mail.Provider) *app {
	jobs := jobsmod.New(deps)
	jp := module.MustPortsOf[jobsmod.Ports](jobs)
	recipients := module.MustPortsOf[recmod.Ports](recmod.New(deps))

	checker := checkermod.New(deps, src, recipients.Reader, jp.Enqueuer)
	builder := buildermod.New(deps, recipients.Reader, jp.Enqueuer)
	mailer := mailermod.New(deps, provider)
	scheduler := schedmod.New(deps, recipients.Scanner, jp.Enqueuer)

	return &app{
		jobs:      jobs,
		runner:    jp.Runner,
		mailer:    mailer,
		scheduler: module.MustPortsOf[schedmod.Ports](scheduler).Runner,
		handlers: map[string]jobsdom.Handler{
			jobsdom.QueueChecker: module.MustPortsOf[checkermod.Ports](checker).Handler,
			jobsdom.QueueBuilder: module.MustPortsOf[buildermod.Ports](builder).Handler,
			jobsdom.QueueMailer:  module.MustPortsOf[mailermod.Ports](mailer).Handler,
		},
	}
}

// register attaches the queue handlers mode consumes
func (a *app) register(mode string) error {
	switch mode {
	case modeAll:
		a.queues = []string{jobsdom.QueueChecker, jobsdom.QueueBuilder, jobsdom.QueueMailer}
		a.schedule = true
	case modeScheduler:
		a.schedule = true
	case jobsdom.QueueChecker, jobsdom.QueueBuilder, jobsdom.QueueMailer:
		a.queues = []string{mode}
	default:
		return perr.Configf("unknown mode %q", mode)
	}
	for _, q := range a.queues {
		a.runner.Register(q, a.handlers[q], a.jobs.PolicyFor(q))
	}
	return nil
}

func (a *app) consumes(q string) bool {
	for _, c := range a.queues {
		if c == q {
			return true
		}
	}
	return false
}

// start runs the registered roles until ctx ends or one of them fails
func (a *app) start(ctx context.Context) error {
	log := logger.Named("worker")
	if a.consumes(jobsdom.QueueMailer) {
		if err := a.mailer.Prepare(ctx); err != nil {
			return perr.WithOp(err, "mailer.prepare")
		}
	}
	if len(a.queues) > 0 {
		if _, err := a.runner.Recover(ctx); err != nil {
			return perr.WithOp(err, "jobs.recover")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	launch := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := run(ctx)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Error().Err(err).Str("role", name).Msg("role stopped")
			once.Do(func() { first = err })
			cancel()
		}()
	}
	if len(a.queues) > 0 {
		launch("jobs", a.runner.Run)
	}
	if a.schedule {
		launch("scheduler", a.scheduler.Run)
	}
	log.Info().Strs("queues", a.queues).Bool("scheduler", a.schedule).Msg("worker started")
	wg.Wait()
	return first
}

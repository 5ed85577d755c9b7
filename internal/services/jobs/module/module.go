// Package module wires the jobs queue and exposes its ports
package module

import (
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"

	"ghdigest/internal/services/jobs/domain"
	"ghdigest/internal/services/jobs/repo"
	"ghdigest/internal/services/jobs/service"
)

// Module defines the jobs module
type Module struct {
	module.NoRoutes
	opts  Options
	ports Ports
}

// New constructs the jobs module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)
	svc := service.New(repo.New(deps.KV, deps.Keys), service.Config{
		PollInterval: opts.PollInterval,
		MaxAttempts:  opts.MaxAttempts,
	}, deps.Emitter())
	return &Module{opts: opts, ports: Ports{Enqueuer: svc, Runner: svc}}
}

// PolicyFor returns the consumption policy configured for queue.
// Checker jobs are never retried; the next scheduler tick covers them
func (m *Module) PolicyFor(queue string) domain.Policy {
	switch queue {
	case domain.QueueChecker:
		return domain.Policy{Workers: m.opts.CheckerWorkers, Retry: false}
	case domain.QueueBuilder:
		return domain.Policy{Workers: m.opts.BuilderWorkers, Retry: true}
	case domain.QueueMailer:
		return domain.Policy{Workers: m.opts.MailerWorkers, Retry: true}
	}
	return domain.Policy{Workers: 1, Retry: true}
}

// Name returns the module name
func (m *Module) Name() string { return "jobs" }

// Ports returns the module ports (Enqueuer, Runner)
func (m *Module) Ports() any { return m.ports }

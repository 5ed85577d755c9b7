// Package module wires the poller and handoff and exposes their ports
package module

import (
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"

	"ghdigest/internal/services/checker/domain"
	"ghdigest/internal/services/checker/repo"
	"ghdigest/internal/services/checker/service"
	jobsdom "ghdigest/internal/services/jobs/domain"
	recdom "ghdigest/internal/services/recipients/domain"
)

// Ports exported by the checker module
type Ports struct {
	Checker domain.CheckerPort
	Handoff domain.HandoffPort
	// Handler consumes check jobs
	Handler jobsdom.Handler
}

// Module defines the checker module
type Module struct {
	module.NoRoutes
	opts  Options
	ports Ports
}

// New constructs the checker module
func New(deps modkit.Deps, src domain.EventSource, recipients recdom.ReaderPort, jobs jobsdom.EnqueuerPort) *Module {
	opts := FromConfig(deps.Cfg)
	svc := service.New(repo.New(deps.KV, deps.Keys), src, recipients, jobs, service.Config{
		LockTTL:         opts.LockTTL,
		HistoryCap:      opts.HistoryCap,
		ConflictRebuild: opts.ConflictRebuild,
	}, deps.Emitter())
	return &Module{opts: opts, ports: Ports{Checker: svc, Handoff: svc, Handler: svc.HandleJob}}
}

// Name returns the module name
func (m *Module) Name() string { return "checker" }

// Ports returns the module ports (Checker, Handoff, Handler)
func (m *Module) Ports() any { return m.ports }

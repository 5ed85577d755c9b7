// Package module wires the scheduler and exposes its ports
package module

import (
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"

	jobsdom "ghdigest/internal/services/jobs/domain"
	recdom "ghdigest/internal/services/recipients/domain"
	"ghdigest/internal/services/scheduler/domain"
	"ghdigest/internal/services/scheduler/service"
)

// Ports exported by the scheduler module
type Ports struct {
	Ticker domain.TickerPort
	Runner domain.RunnerPort
}

// Module defines the scheduler module
type Module struct {
	module.NoRoutes
	ports Ports
}

// New constructs the scheduler module
func New(deps modkit.Deps, scanner recdom.ScannerPort, jobs jobsdom.EnqueuerPort) *Module {
	opts := FromConfig(deps.Cfg)
	svc := service.New(scanner, jobs, service.Config{
		Spec:        opts.Spec,
		ScanBatch:   opts.ScanBatch,
		RunOnStart:  opts.RunOnStart,
		TickTimeout: opts.TickTimeout,
	}, deps.Emitter())
	return &Module{ports: Ports{Ticker: svc, Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "scheduler" }

// Ports returns the module ports (Ticker, Runner)
func (m *Module) Ports() any { return m.ports }

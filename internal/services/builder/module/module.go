// Package module wires the digest builder and exposes its ports
package module

import (
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"

	"ghdigest/internal/services/builder/domain"
	"ghdigest/internal/services/builder/repo"
	"ghdigest/internal/services/builder/service"
	jobsdom "ghdigest/internal/services/jobs/domain"
	recdom "ghdigest/internal/services/recipients/domain"
)

// Ports exported by the builder module
type Ports struct {
	Builder domain.BuilderPort
	// Handler consumes build jobs
	Handler jobsdom.Handler
}

// Module defines the builder module
type Module struct {
	module.NoRoutes
	ports Ports
}

// New constructs the builder module
func New(deps modkit.Deps, recipients recdom.ReaderPort, jobs jobsdom.EnqueuerPort) *Module {
	opts := FromConfig(deps.Cfg)
	svc := service.New(repo.New(deps.KV), recipients, jobs, deps.Keys, service.Config{
		Domain:   opts.Domain,
		Secret:   []byte(opts.Secret),
		Location: opts.Location,
	}, deps.Emitter())
	return &Module{ports: Ports{Builder: svc, Handler: svc.HandleJob}}
}

// Name returns the module name
func (m *Module) Name() string { return "builder" }

// Ports returns the module ports (Builder, Handler)
func (m *Module) Ports() any { return m.ports }

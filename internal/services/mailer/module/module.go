// Package module wires the delivery guard and exposes its ports
package module

import (
	"context"

	"ghdigest/internal/adapters/mail"
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"
	"ghdigest/internal/modkit/repokit"
	jobsdom "ghdigest/internal/services/jobs/domain"
	"ghdigest/internal/services/mailer/domain"
	"ghdigest/internal/services/mailer/repo"
	"ghdigest/internal/services/mailer/service"
)

// Ports exported by the mailer module
type Ports struct {
	Deliverer domain.DeliverPort
	// Handler consumes deliver jobs
	Handler jobsdom.Handler
}

// Module defines the mailer module
type Module struct {
	module.NoRoutes
	opts  Options
	audit repo.Audit
	ports Ports
}

// New constructs the mailer module. The audit log is only wired when deps.PG is set
func New(deps modkit.Deps, provider mail.Provider) *Module {
	opts := FromConfig(deps.Cfg)
	m := &Module{opts: opts}
	if opts.Audit && deps.PG != nil {
		m.audit = repokit.MustBind(repo.NewPG(), deps.PG)
	}
	svc := service.New(repo.NewGuard(deps.KV), m.audit, mail.MustRenderer(), provider,
		service.Config{From: opts.Mail.From}, deps.Emitter())
	m.ports = Ports{Deliverer: svc, Handler: svc.HandleJob}
	return m
}

// Prepare creates the audit table when the audit log is on
func (m *Module) Prepare(ctx context.Context) error {
	if m.audit == nil {
		return nil
	}
	return m.audit.EnsureSchema(ctx)
}

// Name returns the module name
func (m *Module) Name() string { return "mailer" }

// Ports returns the module ports (Deliverer, Handler)
func (m *Module) Ports() any { return m.ports }

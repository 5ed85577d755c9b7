// Package module wires the unsubscribe endpoint
package module

import (
	"net/http"

	"ghdigest/internal/core/digest"
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/httpkit"

	"ghdigest/internal/services/api/unsubscribe/domain"
	unsubhttp "ghdigest/internal/services/api/unsubscribe/http"
	"ghdigest/internal/services/api/unsubscribe/service"
	recdom "ghdigest/internal/services/recipients/domain"
)

// Ports exported by the unsubscribe module
type Ports struct {
	Unsubscriber domain.UnsubscribePort
}

// Module serves GET /unsubscribe
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	ports  Ports
}

// New builds the module; CORE_SECRET must match the builder's
func New(deps modkit.Deps, prefs recdom.PreferencesPort, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("unsubscribe"),
		modkit.WithPrefix("/unsubscribe"),
	}, opts...)...)
	secret := deps.Cfg.Prefix("CORE_").MustSecret("SECRET", 16)
	svc := service.New(digest.Signer{Secret: []byte(secret)}, prefs, deps.Emitter())
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, ports: Ports{Unsubscriber: svc}}
}

// MountRoutes mounts the link handler under the prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(sub httpkit.Router) {
		unsubhttp.Register(sub, m.ports.Unsubscriber)
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module ports (Unsubscriber)
func (m *Module) Ports() any { return m.ports }

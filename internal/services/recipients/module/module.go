// Package module wires the recipients repository and exposes its ports
package module

import (
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"

	"ghdigest/internal/services/recipients/repo"
)

// Module defines the recipients module
type Module struct {
	module.NoRoutes
	ports Ports
}

// New constructs the recipients module over deps.KV
func New(deps modkit.Deps) *Module {
	r := repo.New(deps.KV, deps.Keys)
	return &Module{ports: Ports{Reader: r, Scanner: r, Preferences: r}}
}

// Name returns the module name
func (m *Module) Name() string { return "recipients" }

// Ports returns the module ports (Reader, Scanner, Preferences)
func (m *Module) Ports() any { return m.ports }

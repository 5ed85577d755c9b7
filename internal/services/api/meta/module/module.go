// Package module wires the meta endpoints
package module

import (
	"context"
	"net/http"
	"time"

	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/httpkit"
	"ghdigest/internal/platform/store/kv"

	metahttp "ghdigest/internal/services/api/meta/http"
)

// Module serves /health, /ready and /version
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	deps   metahttp.Deps
}

// New builds the meta module; readiness pings Redis, and Postgres when deps.PG can ping
func New(deps modkit.Deps, service string, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("meta")}, opts...)...)

	var checks []metahttp.Check
	if deps.KV != nil {
		checks = append(checks, metahttp.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return kv.Ping(ctx, deps.KV)
		}})
	}
	if p, ok := deps.PG.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, metahttp.Check{Name: "pg", Ping: p.Ping})
	}
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		deps: metahttp.Deps{
			Service:   service,
			StartedAt: time.Now(),
			Checks:    checks,
			Timeout:   deps.Cfg.Prefix("API_").MayDuration("READY_TIMEOUT", 2*time.Second),
		},
	}
}

// MountRoutes mounts at the root unless a prefix was given
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(sub httpkit.Router) { metahttp.Register(sub, m.deps) })
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns nil; meta exposes no ports
func (m *Module) Ports() any { return nil }

// Package modkit provides module wiring and core deps
package modkit

import (
	"ghdigest/internal/core/keys"
	"ghdigest/internal/modkit/repokit"
	"ghdigest/internal/platform/config"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/platform/store/kv"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log  logger.Logger
	Cfg  config.Conf
	KV   kv.Client
	Keys keys.Space

	// PG is nil when the delivery audit log is disabled
	PG repokit.Queryer

	Metrics metrics.Emitter
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional stores
func (d Deps) ZeroOK() bool { return true }

// Emitter returns Metrics or a no-op sink
func (d Deps) Emitter() metrics.Emitter {
	if d.Metrics == nil {
		return metrics.Nop{}
	}
	return d.Metrics
}

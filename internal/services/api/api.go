// Package api composes the HTTP surface of ghdigest-api
package api

import (
	"net/http"
	"time"

	"ghdigest/internal/modkit/httpkit"
	"ghdigest/internal/modkit/module"
	"ghdigest/internal/platform/config"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	phttp "ghdigest/internal/platform/net/http"
)

// Options configure the root router
type Options struct {
	Origins  []string
	Timeout  time.Duration
	Slow     time.Duration
	Profiler bool
	// Metrics is counted into by the access log; MetricsHandler serves /metrics when set
	Metrics        metrics.Emitter
	MetricsHandler http.Handler
}

// FromConfig reads API_CORS_ORIGINS, API_TIMEOUT, API_SLOW and API_PPROF
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("API_")
	return Options{
		Origins:  c.MayCSV("CORS_ORIGINS", nil),
		Timeout:  c.MayDuration("TIMEOUT", 30*time.Second),
		Slow:     c.MayDuration("SLOW", 500*time.Millisecond),
		Profiler: c.MayBool("PPROF", false),
	}
}

// Mount installs the common stack on r, then /metrics, pprof and every module's routes
func Mount(r httpkit.Router, o Options, mods ...module.Module) {
	r.Use(httpkit.CommonStack(httpkit.StackOptions{
		Origins: o.Origins,
		Timeout: o.Timeout,
		Slow:    o.Slow,
		Metrics: o.Metrics,
	})...)
	if o.MetricsHandler != nil {
		r.Handle("/metrics", o.MetricsHandler)
	}
	phttp.MountProfiler(r, "/debug", o.Profiler)

	log := logger.Named("api")
	for _, m := range mods {
		m.MountRoutes(r)
		log.Debug().Str("module", m.Name()).Msg("module mounted")
	}
}

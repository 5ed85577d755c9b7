// Package http serves the liveness, readiness and version endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"ghdigest/internal/core/version"
	"ghdigest/internal/modkit/httpkit"
)

// Check is one readiness probe
type Check struct {
	Name string
	Ping func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	Service   string
	StartedAt time.Time
	Checks    []Check
	// Timeout bounds all readiness pings together
	Timeout time.Duration
	Now     func() time.Time
}

type handlers struct{ deps Deps }

// Register mounts /health, /ready and /version on r
func Register(r httpkit.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	h := &handlers{deps: d}
	r.Get("/health", httpkit.Call(h.health))
	r.Get("/ready", httpkit.Call(h.ready))
	r.Get("/version", httpkit.Call(h.version))
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// ReadyCheck is the result of one probe
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness; Status is ok or fail
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	now := h.deps.Now()
	return HealthResponse{
		OK:      true,
		Service: h.deps.Service,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(now.Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.Timeout)
	defer cancel()

	resp := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(h.deps.Checks))}
	for _, c := range h.deps.Checks {
		rc := ReadyCheck{Name: c.Name, Status: "ok"}
		if err := c.Ping(ctx); err != nil {
			rc.Status, rc.Error = "fail", err.Error()
			resp.Status = "fail"
		}
		resp.Checks = append(resp.Checks, rc)
	}
	resp.Now = h.deps.Now().UTC().Format(time.RFC3339)
	if resp.Status != "ok" {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: resp}, nil
	}
	return resp, nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.Service), nil
}

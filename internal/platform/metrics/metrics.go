// Package metrics defines the counters the pipeline emits and the Emitter capability
// components receive instead of reaching for a process-wide sink
package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Name identifies a counter
type Name string

const (
	CheckerRuns       Name = "checker_runs_total"
	CheckerEvents     Name = "checker_events_total"
	CheckerContended  Name = "checker_lock_contended_total"
	Handoffs          Name = "handoff_total"
	HandoffConflicts  Name = "handoff_conflicts_total"
	BuilderDigests    Name = "builder_digests_total"
	MailerDeliveries  Name = "mailer_deliveries_total"
	JobsProcessed     Name = "jobs_processed_total"
	SchedulerEnqueued Name = "scheduler_enqueued_total"
	GitHubRequests    Name = "github_requests_total"
	HTTPRequests      Name = "http_requests_total"
	Unsubscribes      Name = "unsubscribe_total"
)

type def struct {
	help   string
	labels []string
}

var defs = map[Name]def{
	CheckerRuns:       {"Poller runs by outcome", []string{"outcome"}},
	CheckerEvents:     {"Normalized events produced by type", []string{"type"}},
	CheckerContended:  {"Poller runs skipped because the check lock was held", nil},
	Handoffs:          {"Batch handoff decisions by outcome", []string{"outcome"}},
	HandoffConflicts:  {"Handoffs refused because a processing buffer already existed", nil},
	BuilderDigests:    {"Digest builds by outcome", []string{"outcome"}},
	MailerDeliveries:  {"Delivery guard results by outcome", []string{"outcome"}},
	JobsProcessed:     {"Jobs finished by queue and outcome", []string{"queue", "outcome"}},
	SchedulerEnqueued: {"Check jobs enqueued by the scheduler", nil},
	GitHubRequests:    {"Event source HTTP requests by status class", []string{"status"}},
	HTTPRequests:      {"API requests by method and status class", []string{"method", "status"}},
	Unsubscribes:      {"Unsubscribe link results by outcome", []string{"outcome"}},
}

// Emitter increments a named counter; values follow the counter's label order
type Emitter interface {
	Inc(name Name, values ...string)
}

// Nop discards everything
type Nop struct{}

// Inc does nothing
func (Nop) Inc(Name, ...string) {}

// Prom is a prometheus backed Emitter
type Prom struct {
	reg  *prometheus.Registry
	vecs map[Name]*prometheus.CounterVec
}

// NewProm registers every counter under namespace on a fresh registry
func NewProm(namespace string) *Prom {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	p := &Prom{reg: reg, vecs: make(map[Name]*prometheus.CounterVec, len(defs))}
	for n, d := range defs {
		p.vecs[n] = f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      string(n),
			Help:      d.help,
		}, d.labels)
	}
	return p
}

// Inc increments name; unknown names and label count mismatches are ignored
func (p *Prom) Inc(name Name, values ...string) {
	v, ok := p.vecs[name]
	if !ok || len(values) != len(defs[name].labels) {
		return
	}
	v.WithLabelValues(values...).Inc()
}

// Counter exposes a labelled child, mainly for tests
func (p *Prom) Counter(name Name, values ...string) prometheus.Counter {
	return p.vecs[name].WithLabelValues(values...)
}

// Handler serves the registry in the exposition format
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

// Recorder keeps counts in memory for assertions
type Recorder struct {
	mu sync.Mutex
	m  map[string]int
}

// NewRecorder returns an empty Recorder
func NewRecorder() *Recorder { return &Recorder{m: map[string]int{}} }

// Inc records one increment
func (r *Recorder) Inc(name Name, values ...string) {
	r.mu.Lock()
	r.m[key(name, values)]++
	r.mu.Unlock()
}

// Count returns how often name was incremented with exactly values
func (r *Recorder) Count(name Name, values ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[key(name, values)]
}

func key(name Name, values []string) string {
	return string(name) + "|" + strings.Join(values, "|")
}

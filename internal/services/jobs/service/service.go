// Package service contains the jobs queue producer and runner
package service

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/services/jobs/domain"
)

// Store is the queue storage the service needs
type Store interface {
	Push(ctx context.Context, q, raw string) error
	Claim(ctx context.Context, q string) (string, bool, error)
	Ack(ctx context.Context, q, raw string) error
	Requeue(ctx context.Context, q, raw, next string) error
	Bury(ctx context.Context, q, raw, next string) error
	Recover(ctx context.Context, q string) (int, error)
}

// Config controls the runner
type Config struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// Svc implements EnqueuerPort and RunnerPort
type Svc struct {
	store  Store
	cfg    Config
	log    logger.Logger
	em     metrics.Emitter
	now    func() time.Time
	newID  func() string
	mu     sync.Mutex
	queues map[string]registration
}

type registration struct {
	h domain.Handler
	p domain.Policy
}

// New constructs the service
func New(store Store, cfg Config, em metrics.Emitter) *Svc {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if em == nil {
		em = metrics.Nop{}
	}
	return &Svc{
		store:  store,
		cfg:    cfg,
		log:    *logger.Named("jobs"),
		em:     em,
		now:    time.Now,
		newID:  uuid.NewString,
		queues: map[string]registration{},
	}
}

// Enqueue wraps payload in a Job and pushes it; it never waits for a consumer
func (s *Svc) Enqueue(ctx context.Context, queue, kind string, payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "encode job payload")
	}
	j := domain.Job{ID: s.newID(), Kind: kind, Payload: b, EnqueuedAt: s.now().Unix()}
	raw, err := json.Marshal(j)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "encode job")
	}
	if err := s.store.Push(ctx, queue, string(raw)); err != nil {
		return "", err
	}
	return j.ID, nil
}

// Register attaches h to queue; call before Run
func (s *Svc) Register(queue string, h domain.Handler, p domain.Policy) {
	if p.Workers <= 0 {
		p.Workers = 1
	}
	s.mu.Lock()
	s.queues[queue] = registration{h: h, p: p}
	s.mu.Unlock()
}

// Recover requeues inflight entries for every registered queue
func (s *Svc) Recover(ctx context.Context) (int, error) {
	total := 0
	for _, q := range s.registered() {
		n, err := s.store.Recover(ctx, q)
		total += n
		if err != nil {
			return total, err
		}
		if n > 0 {
			s.log.Info().Str("queue", q).Int("jobs", n).Msg("recovered inflight jobs")
		}
	}
	return total, nil
}

func (s *Svc) registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.queues))
	for q := range s.queues {
		out = append(out, q)
	}
	return out
}

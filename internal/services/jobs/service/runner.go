package service

import (
	"context"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"ghdigest/internal/core/keys"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/services/jobs/domain"
)

// Run starts Policy.Workers loops per registered queue and blocks until ctx ends
func (s *Svc) Run(ctx context.Context) error {
	s.mu.Lock()
	regs := make(map[string]registration, len(s.queues))
	for q, r := range s.queues {
		regs[q] = r
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for q, r := range regs {
		for range r.p.Workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.loop(ctx, q, r)
			}()
		}
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Svc) loop(ctx context.Context, q string, r registration) {
	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()
	for {
		// drain before sleeping again
		for {
			if ctx.Err() != nil {
				return
			}
			worked, err := s.Once(ctx, q, r.h, r.p)
			if err != nil {
				s.log.Error().Err(err).Str("queue", q).Msg("queue poll failed")
				break
			}
			if !worked {
				break
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Once claims and handles a single job from q; worked is false when q was empty
func (s *Svc) Once(ctx context.Context, q string, h domain.Handler, p domain.Policy) (worked bool, err error) {
	raw, ok, err := s.store.Claim(ctx, q)
	if err != nil || !ok {
		return false, err
	}

	var j domain.Job
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		s.log.Error().Err(err).Str("queue", q).Msg("undecodable job buried")
		s.em.Inc(metrics.JobsProcessed, q, "dead")
		return true, s.store.Bury(ctx, q, raw, raw)
	}

	jctx := logger.WithJob(ctx, j.ID, recipientOf(j))
	herr := s.invoke(jctx, h, j)
	if herr == nil {
		s.em.Inc(metrics.JobsProcessed, q, "ok")
		return true, s.store.Ack(ctx, q, raw)
	}
	if ctx.Err() != nil {
		// shutting down; leave it inflight for Recover
		return true, nil
	}

	log := logger.C(jctx).With().Str("component", "jobs").Str("queue", q).Str("kind", j.Kind).Int("attempt", j.Attempt).Logger()
	j.LastError = trimErr(herr)
	if p.Retry && !perr.Permanent(herr) && j.Attempt+1 < s.cfg.MaxAttempts {
		j.Attempt++
		next, _ := json.Marshal(j)
		log.Warn().Err(herr).Msg("job failed, requeued")
		s.em.Inc(metrics.JobsProcessed, q, "retry")
		return true, s.store.Requeue(ctx, q, raw, string(next))
	}
	next, _ := json.Marshal(j)
	log.Error().Err(herr).Msg("job failed permanently")
	s.em.Inc(metrics.JobsProcessed, q, "dead")
	return true, s.store.Bury(ctx, q, raw, string(next))
}

func (s *Svc) invoke(ctx context.Context, h domain.Handler, j domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.Newf(perr.ErrorCodePanic, "job panicked: %v", r)
		}
	}()
	return h(ctx, j)
}

// recipientOf pulls the recipient id out of known payloads for log context
func recipientOf(j domain.Job) string {
	switch j.Kind {
	case domain.KindCheck:
		var p domain.CheckPayload
		if j.Decode(&p) == nil {
			return p.UserID
		}
	case domain.KindBuild:
		var p domain.BuildPayload
		if j.Decode(&p) == nil {
			return keys.IDOf(p.Key)
		}
	}
	return ""
}

func trimErr(err error) string {
	const n = 500
	s := err.Error()
	if len(s) <= n {
		return s
	}
	return s[:n]
}

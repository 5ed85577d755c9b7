// Package service implements the digest builder
package service

import (
	"context"
	"time"

	"ghdigest/internal/adapters/mail"
	"ghdigest/internal/core/digest"
	"ghdigest/internal/core/event"
	"ghdigest/internal/core/keys"
	"ghdigest/internal/core/recipient"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/services/builder/domain"
	jobsdom "ghdigest/internal/services/jobs/domain"
	mailerdom "ghdigest/internal/services/mailer/domain"
	recdom "ghdigest/internal/services/recipients/domain"
)

// Store reads processing buffers; *repo.Buffers satisfies it
type Store interface {
	Read(ctx context.Context, key string) ([]string, error)
	Drop(ctx context.Context, key string) error
}

// Config controls digest rendering
type Config struct {
	Domain string
	Secret []byte
	// Location is used for day headers, subject dates and the summary time
	Location *time.Location
}

// Svc implements BuilderPort
type Svc struct {
	store      Store
	recipients recdom.ReaderPort
	jobs       jobsdom.EnqueuerPort
	keys       keys.Space
	signer     digest.Signer
	cfg        Config
	log        logger.Logger
	em         metrics.Emitter
	now        func() time.Time
}

// New constructs the service
func New(store Store, recipients recdom.ReaderPort, jobs jobsdom.EnqueuerPort, ks keys.Space, cfg Config, em metrics.Emitter) *Svc {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if em == nil {
		em = metrics.Nop{}
	}
	return &Svc{
		store:      store,
		recipients: recipients,
		jobs:       jobs,
		keys:       ks,
		signer:     digest.Signer{Secret: cfg.Secret},
		cfg:        cfg,
		log:        *logger.Named("builder"),
		em:         em,
		now:        time.Now,
	}
}

var _ domain.BuilderPort = (*Svc)(nil)

// Build renders the processing buffer at key and enqueues its delivery.
// A buffer that can never be delivered is dropped so the next handoff is not blocked
func (s *Svc) Build(ctx context.Context, key string) (domain.Outcome, error) {
	id := keys.IDOf(key)
	if id == "" || key != s.keys.Processing(id) {
		return domain.Outcome{}, perr.InvalidArgf("builder: %q is not a processing buffer", key)
	}

	rec, err := s.recipients.Get(ctx, id)
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return s.drop(ctx, key, domain.Outcome{Skipped: true, Reason: domain.ReasonMissing})
	case err != nil:
		return domain.Outcome{}, perr.WithOp(err, "builder.load")
	}

	raw, err := s.store.Read(ctx, key)
	if err != nil {
		return domain.Outcome{}, err
	}

	now := s.now()
	lines, ids := s.render(rec, raw, now)
	if len(lines) == 0 {
		return s.drop(ctx, key, domain.Outcome{Empty: true, Reason: domain.ReasonEmpty})
	}
	switch {
	case !rec.EmailConfirmed:
		return s.drop(ctx, key, domain.Outcome{Skipped: true, Reason: domain.ReasonUnconfirmed, Lines: len(lines)})
	case rec.OptedOut():
		return s.drop(ctx, key, domain.Outcome{Skipped: true, Reason: domain.ReasonOptedOut, Lines: len(lines)})
	}

	req := s.request(rec, key, lines, ids, now)
	jobID, err := s.jobs.Enqueue(ctx, jobsdom.QueueMailer, jobsdom.KindDeliver, req)
	if err != nil {
		s.em.Inc(metrics.BuilderDigests, "error")
		return domain.Outcome{}, err
	}
	s.em.Inc(metrics.BuilderDigests, domain.ReasonQueued)
	s.log.Debug().Str("recipient", id).Int("lines", len(lines)).Str("job", jobID).Msg("digest queued")
	return domain.Outcome{Queued: true, Reason: domain.ReasonQueued, Lines: len(lines), JobID: jobID}, nil
}

// render decodes buffer entries in stored order. Suppressed types are dropped entirely;
// unknown types keep their identity but render nothing
func (s *Svc) render(rec recipient.Recipient, raw []string, now time.Time) ([]digest.Line, []string) {
	lines := make([]digest.Line, 0, len(raw))
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		e, err := event.Unmarshal(r)
		if err != nil {
			s.log.Warn().Err(err).Str("recipient", rec.GitHubID).Msg("skip undecodable buffer entry")
			continue
		}
		if rec.Suppressed(e.Type) {
			continue
		}
		ids = append(ids, event.Identity(e, now))
		if l, ok := digest.Render(e, now); ok {
			lines = append(lines, l)
		}
	}
	if rec.Frequency == recipient.Weekly {
		lines = digest.InjectDays(lines, s.cfg.Location)
	}
	return lines, ids
}

func (s *Svc) request(rec recipient.Recipient, key string, lines []digest.Line, ids []string, now time.Time) mailerdom.Request {
	id := rec.GitHubID
	return mailerdom.Request{
		To:          rec.Email,
		Subject:     digest.Subject(len(lines), rec.Frequency, now, s.cfg.Location),
		ContentType: domain.ContentTypeHTML,
		Template:    domain.TemplateDigest,
		Locals: mail.Locals{
			Events:            lines,
			Username:          rec.Login,
			UnsubscribeURL:    s.signer.URL(s.cfg.Domain, id, now),
			NotificationsText: digest.Summary(lines, s.cfg.Location),
			SiteURL:           digest.SiteURL(s.cfg.Domain, rec.Frequency),
		},
		DeleteKey: key,
		LockKey:   s.keys.EmailLock(id),
		LockID:    ids,
		UserKey:   s.keys.User(id),
	}
}

func (s *Svc) drop(ctx context.Context, key string, out domain.Outcome) (domain.Outcome, error) {
	if err := s.store.Drop(ctx, key); err != nil {
		s.em.Inc(metrics.BuilderDigests, "error")
		return out, err
	}
	s.log.Info().Str("buffer", key).Str("reason", out.Reason).Msg("buffer dropped without delivery")
	s.em.Inc(metrics.BuilderDigests, out.Reason)
	return out, nil
}

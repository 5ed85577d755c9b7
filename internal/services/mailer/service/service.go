// Package service implements the delivery guard
package service

import (
	"context"
	"time"

	"ghdigest/internal/adapters/mail"
	"ghdigest/internal/core/event"
	"ghdigest/internal/core/keys"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/services/mailer/domain"
	"ghdigest/internal/services/mailer/repo"
)

// Store is the idempotency record; *repo.Guard satisfies it
type Store interface {
	Sent(ctx context.Context, lockKey, member string) (bool, error)
	Commit(ctx context.Context, userKey, deleteKey, lockKey, member string, at time.Time) error
}

// Renderer produces the html and text parts; *mail.Renderer satisfies it
type Renderer interface {
	Render(name, contentType string, locals mail.Locals) (html, text string, err error)
}

// Config controls outgoing mail
type Config struct {
	From string
}

// Svc implements DeliverPort
type Svc struct {
	store    Store
	audit    repo.Audit
	renderer Renderer
	provider mail.Provider
	cfg      Config
	log      logger.Logger
	em       metrics.Emitter
	now      func() time.Time
}

// New constructs the service. audit may be nil
func New(store Store, audit repo.Audit, renderer Renderer, provider mail.Provider, cfg Config, em metrics.Emitter) *Svc {
	if em == nil {
		em = metrics.Nop{}
	}
	return &Svc{
		store:    store,
		audit:    audit,
		renderer: renderer,
		provider: provider,
		cfg:      cfg,
		log:      *logger.Named("mailer"),
		em:       em,
		now:      time.Now,
	}
}

var _ domain.DeliverPort = (*Svc)(nil)

// Deliver sends req unless its identity list was already recorded, then commits
// last-sent, the buffer delete and the idempotency entry together
func (s *Svc) Deliver(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if req.Template == "" {
		s.em.Inc(metrics.MailerDeliveries, "invalid")
		return domain.Outcome{}, perr.Configf("mailer: missing template")
	}
	if req.To == "" {
		s.em.Inc(metrics.MailerDeliveries, "invalid")
		return domain.Outcome{}, perr.WithField(perr.New(perr.ErrorCodeValidation, "mailer: missing recipient address"), "To")
	}

	member := ""
	if len(req.LockID) > 0 {
		member = event.CanonicalKey(req.LockID)
		sent, err := s.store.Sent(ctx, req.LockKey, member)
		if err != nil {
			return domain.Outcome{}, err
		}
		if sent {
			s.log.Info().Str("lock", req.LockKey).Int("identities", len(req.LockID)).Msg("digest already sent")
			s.em.Inc(metrics.MailerDeliveries, "duplicate")
			return domain.Outcome{AlreadySent: true}, nil
		}
	}

	html, text, err := s.renderer.Render(req.Template, req.ContentType, req.Locals)
	if err != nil {
		s.em.Inc(metrics.MailerDeliveries, "invalid")
		return domain.Outcome{}, err
	}

	msg := mail.Message{
		From:        s.cfg.From,
		To:          req.To,
		Subject:     req.Subject,
		HTML:        html,
		Text:        text,
		Unsubscribe: req.Locals.UnsubscribeURL,
	}
	if err := s.provider.Send(ctx, msg); err != nil {
		s.em.Inc(metrics.MailerDeliveries, "failed")
		if _, ok := perr.As(err); ok {
			return domain.Outcome{}, err
		}
		return domain.Outcome{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "send digest")
	}

	now := s.now()
	if err := s.store.Commit(ctx, req.UserKey, req.DeleteKey, req.LockKey, member, now); err != nil {
		s.log.Error().Err(err).Str("lock", req.LockKey).Msg("delivery sent but not committed")
		s.em.Inc(metrics.MailerDeliveries, "failed")
		return domain.Outcome{Sent: true}, err
	}
	s.record(ctx, req, member, now)
	s.em.Inc(metrics.MailerDeliveries, "sent")
	return domain.Outcome{Sent: true}, nil
}

// record appends to the audit log; failures only log
func (s *Svc) record(ctx context.Context, req domain.Request, member string, at time.Time) {
	if s.audit == nil {
		return
	}
	d := domain.Delivery{
		RecipientID: keys.IDOf(req.UserKey),
		LockID:      member,
		Subject:     req.Subject,
		Events:      len(req.Locals.Events),
	}
	if err := s.audit.Record(ctx, d, at); err != nil {
		s.log.Warn().Err(err).Str("recipient", d.RecipientID).Msg("audit delivery")
	}
}

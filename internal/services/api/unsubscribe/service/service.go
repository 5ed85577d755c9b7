// Package service verifies unsubscribe links and flips the recipient flag
package service

import (
	"context"
	"time"

	"ghdigest/internal/core/digest"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"

	"ghdigest/internal/services/api/unsubscribe/domain"
	recdom "ghdigest/internal/services/recipients/domain"
)

// Svc implements domain.UnsubscribePort
type Svc struct {
	signer digest.Signer
	prefs  recdom.PreferencesPort
	em     metrics.Emitter
	now    func() time.Time
}

// New constructs the service
func New(signer digest.Signer, prefs recdom.PreferencesPort, em metrics.Emitter) *Svc {
	if em == nil {
		em = metrics.Nop{}
	}
	return &Svc{signer: signer, prefs: prefs, em: em, now: time.Now}
}

// Unsubscribe checks the MAC and expiry before touching the store.
// Repeating a valid link is harmless
func (s *Svc) Unsubscribe(ctx context.Context, l domain.Link) (domain.Result, error) {
	if err := s.signer.Verify(l.ID, l.Expiry, l.MAC, s.now()); err != nil {
		s.em.Inc(metrics.Unsubscribes, "forbidden")
		logger.C(ctx).Warn().Str("recipient", l.ID).Err(err).Msg("unsubscribe link rejected")
		return domain.Result{}, err
	}
	if err := s.prefs.Unsubscribe(ctx, l.ID); err != nil {
		outcome := "error"
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			outcome = "not_found"
		}
		s.em.Inc(metrics.Unsubscribes, outcome)
		return domain.Result{}, perr.WithOp(err, "unsubscribe")
	}
	s.em.Inc(metrics.Unsubscribes, "ok")
	logger.C(ctx).Info().Str("recipient", l.ID).Msg("recipient unsubscribed")
	return domain.Result{ID: l.ID, Unsubscribed: true}, nil
}

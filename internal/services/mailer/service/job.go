package service

import (
	"context"

	"ghdigest/internal/platform/logger"
	jobsdom "ghdigest/internal/services/jobs/domain"
	"ghdigest/internal/services/mailer/domain"
)

// HandleJob runs Deliver for a deliver job
func (s *Svc) HandleJob(ctx context.Context, j jobsdom.Job) error {
	var req domain.Request
	if err := j.Decode(&req); err != nil {
		return err
	}
	out, err := s.Deliver(ctx, req)
	if err != nil {
		return err
	}
	logger.C(ctx).Debug().Bool("already_sent", out.AlreadySent).Bool("sent", out.Sent).Msg("deliver done")
	return nil
}

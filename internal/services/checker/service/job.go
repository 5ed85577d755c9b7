package service

import (
	"context"

	"ghdigest/internal/platform/logger"
	jobsdom "ghdigest/internal/services/jobs/domain"
)

// HandleJob runs Check for a check job
func (s *Svc) HandleJob(ctx context.Context, j jobsdom.Job) error {
	var p jobsdom.CheckPayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	res, err := s.Check(ctx, p.UserID, p.FirstTime)
	if err != nil {
		return err
	}
	logger.C(ctx).Debug().
		Bool("skipped", res.Skipped).
		Bool("first_run", res.FirstRun).
		Int("events", res.Events).
		Int64("cursor", res.Cursor).
		Str("handoff", res.Handoff.Reason).
		Msg("check done")
	return nil
}

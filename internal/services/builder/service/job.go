package service

import (
	"context"

	"ghdigest/internal/platform/logger"
	jobsdom "ghdigest/internal/services/jobs/domain"
)

// HandleJob runs Build for a build job
func (s *Svc) HandleJob(ctx context.Context, j jobsdom.Job) error {
	var p jobsdom.BuildPayload
	if err := j.Decode(&p); err != nil {
		return err
	}
	out, err := s.Build(ctx, p.Key)
	if err != nil {
		return err
	}
	logger.C(ctx).Debug().Str("reason", out.Reason).Int("lines", out.Lines).Msg("build done")
	return nil
}

package service

import (
	"context"
	"time"

	"ghdigest/internal/core/recipient"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/services/checker/domain"
	jobsdom "ghdigest/internal/services/jobs/domain"
)

// Handoff moves rec's pending buffer to processing and enqueues a build job when a digest is due.
// An occupied processing buffer keeps pending in place; once it has sat for ConflictRebuild its
// build job is queued again so a buried delivery cannot strand it
func (s *Svc) Handoff(ctx context.Context, rec recipient.Recipient, now time.Time) (domain.HandoffResult, error) {
	res, err := s.handoff(ctx, rec, now)
	s.em.Inc(metrics.Handoffs, res.Reason)
	return res, err
}

func (s *Svc) handoff(ctx context.Context, rec recipient.Recipient, now time.Time) (domain.HandoffResult, error) {
	id := rec.GitHubID
	if !rec.EmailConfirmed {
		return domain.HandoffResult{Reason: domain.ReasonUnconfirmed}, nil
	}
	if !Due(rec.Frequency, rec.LastQueued, now) {
		return domain.HandoffResult{Reason: domain.ReasonNotDue}, nil
	}

	p, err := s.store.Promote(ctx, id)
	if err != nil {
		return domain.HandoffResult{Reason: "error"}, err
	}
	switch p {
	case domain.NothingPending:
		return domain.HandoffResult{Reason: domain.ReasonEmpty}, nil
	case domain.ProcessingExists:
		return s.conflict(ctx, rec, now)
	}

	key := s.store.ProcessingKey(id)
	res := domain.HandoffResult{Queued: true, Reason: domain.ReasonQueued, Key: key}

	// the buffer is already promoted, so the build job goes out even if the mark fails
	markErr := s.store.MarkQueued(ctx, id, now)
	if markErr != nil {
		s.log.Error().Err(markErr).Str("recipient", id).Msg("mark queued")
	}
	jobID, err := s.jobs.Enqueue(ctx, jobsdom.QueueBuilder, jobsdom.KindBuild, jobsdom.BuildPayload{Key: key})
	if err != nil {
		return res, err
	}
	res.JobID = jobID
	s.log.Debug().Str("recipient", id).Str("job", jobID).Msg("digest build queued")
	return res, markErr
}

// conflict handles a handoff that found the previous processing buffer still present.
// A rebuild of a buffer the mailer already cleared drops nothing and sends nothing
func (s *Svc) conflict(ctx context.Context, rec recipient.Recipient, now time.Time) (domain.HandoffResult, error) {
	id := rec.GitHubID
	key := s.store.ProcessingKey(id)
	s.em.Inc(metrics.HandoffConflicts)
	res := domain.HandoffResult{Reason: domain.ReasonConflict, Key: key}
	if !rec.LastQueued.IsZero() && now.Sub(rec.LastQueued) < s.cfg.ConflictRebuild {
		s.log.Warn().Str("recipient", id).Msg("processing buffer still present; handoff skipped")
		return res, nil
	}

	jobID, err := s.jobs.Enqueue(ctx, jobsdom.QueueBuilder, jobsdom.KindBuild, jobsdom.BuildPayload{Key: key})
	if err != nil {
		return res, err
	}
	res.JobID = jobID
	s.log.Warn().Str("recipient", id).Str("job", jobID).Time("queued_at", rec.LastQueued).Msg("stale processing buffer; build queued again")
	// restarts the wait so the next checks skip instead of queueing again
	return res, s.store.MarkQueued(ctx, id, now)
}

package service

import (
	"context"
	"strings"
	"time"

	"ghdigest/internal/adapters/github"
	"ghdigest/internal/core/event"
	"ghdigest/internal/core/recipient"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/services/checker/domain"
	"ghdigest/internal/services/checker/repo"
)

// upstream activity types the poller keeps
var activity = map[string]event.Type{
	"WatchEvent": event.Star,
	"ForkEvent":  event.Fork,
}

// run carries the state of one Check between phases
type run struct {
	id    string
	rec   recipient.Recipient
	lease repo.Lease
	first bool
	now   time.Time
	// out is oldest first and holds what the current phase has not stored yet
	out     []event.Event
	renewed time.Time
}

// Check polls userID's activity and followers, buffers what is new and hands off when due.
// A held check lock is not an error: the result is Skipped
func (s *Svc) Check(ctx context.Context, userID string, firstTime bool) (domain.Result, error) {
	lease, ok, err := s.store.AcquireLock(ctx, userID, s.cfg.LockTTL)
	if err != nil {
		s.em.Inc(metrics.CheckerRuns, "error")
		return domain.Result{}, err
	}
	if !ok {
		s.log.Info().Str("recipient", userID).Msg("check already running")
		s.em.Inc(metrics.CheckerContended)
		s.em.Inc(metrics.CheckerRuns, "contended")
		return domain.Result{Skipped: true}, nil
	}

	res, err := s.check(ctx, userID, firstTime, lease)
	if err != nil {
		if rerr := s.store.Release(context.WithoutCancel(ctx), lease); rerr != nil {
			s.log.Warn().Err(rerr).Str("recipient", userID).Msg("release check lock")
		}
		s.em.Inc(metrics.CheckerRuns, "error")
		return res, err
	}
	if res.FirstRun {
		s.em.Inc(metrics.CheckerRuns, "first_run")
	} else {
		s.em.Inc(metrics.CheckerRuns, "ok")
	}
	return res, nil
}

// check runs with the lock held; every error return leaves the release to Check
func (s *Svc) check(ctx context.Context, id string, firstTime bool, lease repo.Lease) (domain.Result, error) {
	rec, err := s.recipients.Get(ctx, id)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "checker.load")
	}
	now := s.now()
	r := &run{id: id, rec: rec, lease: lease, first: firstTime || !rec.FirstCheckCompleted, now: now, renewed: now}
	res := domain.Result{FirstRun: r.first, Cursor: rec.LastEventID}

	cursor, err := s.pollEvents(ctx, r)
	if err != nil {
		return res, err
	}
	// activity and the cursor it was read up to land in one transaction
	n, err := s.buffer(ctx, r, cursor)
	if err != nil {
		return res, perr.WithOp(err, "checker.buffer")
	}
	if cursor > rec.LastEventID {
		res.Cursor = cursor
	}
	res.Events = n

	current, err := s.pollFollowers(ctx, r)
	if err != nil {
		return res, err
	}
	// follower events are stored before the snapshot that produced them
	n, err = s.buffer(ctx, r, 0)
	if err != nil {
		return res, perr.WithOp(err, "checker.buffer")
	}
	res.Events += n
	if err := s.store.Commit(ctx, id, logins(current), r.first, lease); err != nil {
		return res, err
	}

	if res.Events == 0 {
		return res, nil
	}
	ho, err := s.Handoff(ctx, rec, now)
	res.Handoff = ho
	if err != nil {
		return res, perr.WithOp(err, "checker.handoff")
	}
	return res, nil
}

// pollEvents walks received events newest first until the stored cursor and returns the first id seen
func (s *Svc) pollEvents(ctx context.Context, r *run) (int64, error) {
	var cursor int64
	seen := false
	err := s.src.ReceivedEvents(ctx, r.rec.Token, r.rec.Login, func(page []github.Event) (bool, error) {
		for _, e := range page {
			seq := e.Seq()
			if !seen {
				cursor, seen = seq, true
			}
			if seq <= r.rec.LastEventID {
				return false, nil
			}
			t, ok := activity[e.Type]
			if !ok || !strings.Contains(e.Repo.Name, r.rec.Login) {
				continue
			}
			r.prepend(t, e.Raw)
		}
		return true, s.renew(ctx, r)
	})
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUpstream, "fetch received events")
	}
	return cursor, nil
}

// pollFollowers fetches the full follower list and, when a snapshot exists, records follows,
// unfollows and deleted accounts
func (s *Svc) pollFollowers(ctx context.Context, r *run) ([]github.User, error) {
	var current []github.User
	err := s.src.Followers(ctx, r.rec.Token, r.rec.Login, func(page []github.User) (bool, error) {
		current = append(current, page...)
		return true, s.renew(ctx, r)
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUpstream, "fetch followers")
	}
	if !r.rec.HasSnapshot() {
		return current, nil
	}

	added, gone := diffFollowers(r.rec.Followers, current)
	for _, u := range added {
		r.prepend(event.Follow, u.Raw)
	}
	for _, login := range gone {
		u, err := s.src.UserByLogin(ctx, r.rec.Token, login)
		switch {
		case err == nil:
			r.prepend(event.Unfollow, u.Raw)
		case perr.IsCode(err, perr.ErrorCodeNotFound):
			r.prependDeleted(login)
		default:
			return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "lookup %s", login)
		}
	}
	return current, nil
}

// renew extends the lease once half the TTL has passed
func (s *Svc) renew(ctx context.Context, r *run) error {
	now := s.now()
	if now.Sub(r.renewed) < s.cfg.LockTTL/2 {
		return nil
	}
	ok, err := s.store.Renew(ctx, r.lease, s.cfg.LockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return perr.Newf(perr.ErrorCodeConflict, "check lock for %s lost", r.id)
	}
	r.renewed = now
	return nil
}

// buffer encodes the events collected since the last call and appends them to pending and
// history, advancing the cursor in the same write when cursor is past the stored one.
// Baseline runs only move the cursor. It returns how many events were stored
func (s *Svc) buffer(ctx context.Context, r *run, cursor int64) (int, error) {
	b := repo.Batch{HistoryCap: s.cfg.HistoryCap}
	if cursor > r.rec.LastEventID {
		b.Cursor = cursor
	}
	var types []event.Type
	if !r.first {
		for _, e := range r.out {
			raw, err := event.Marshal(e)
			if err != nil {
				return 0, err
			}
			types = append(types, e.Type)
			b.History = append(b.History, raw)
			if !r.rec.OptedOut() && !r.rec.Suppressed(e.Type) {
				b.Pending = append(b.Pending, raw)
			}
		}
	}
	if err := s.store.Append(ctx, r.id, b); err != nil {
		return 0, err
	}
	r.out = nil
	for _, t := range types {
		s.em.Inc(metrics.CheckerEvents, string(t))
	}
	return len(types), nil
}

func (r *run) timestamp(t event.Type, raw []byte) *int64 {
	if r.first {
		return nil
	}
	ts := event.ObservedAt(t, event.New(t, raw, nil).View(), r.now)
	return &ts
}

func (r *run) prepend(t event.Type, raw []byte) {
	if len(raw) == 0 {
		raw = []byte("null")
	}
	e := event.New(t, raw, r.timestamp(t, raw))
	r.out = append([]event.Event{e}, r.out...)
}

func (r *run) prependDeleted(login string) {
	var ts *int64
	if !r.first {
		n := r.now.Unix()
		ts = &n
	}
	r.out = append([]event.Event{event.NewDeleted(login, ts)}, r.out...)
}

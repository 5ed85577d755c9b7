package repo

import (
	"context"
	_ "embed"
	"time"

	"ghdigest/internal/modkit/repokit"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/services/mailer/domain"
)

//go:embed schema.sql
var schema string

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// Audit appends delivery rows
type Audit interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, d domain.Delivery, at time.Time) error
	Count(ctx context.Context, recipientID string) (int, error)
}

// NewPG constructs an audit binder for Postgres
func NewPG() repokit.Binder[Audit] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Audit { return &pg{q: q} }

// EnsureSchema creates the audit table when missing
func (s *pg) EnsureSchema(ctx context.Context) error {
	_, err := s.q.Exec(ctx, schema)
	return perr.FromPostgres(err, "create digest_deliveries")
}

// Record inserts d; a repeat of the same identity list is ignored
func (s *pg) Record(ctx context.Context, d domain.Delivery, at time.Time) error {
	_, err := s.q.Exec(ctx, `INSERT INTO digest_deliveries
		(recipient_id, lock_id, subject, events, delivered_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (recipient_id, lock_id) DO NOTHING`,
		d.RecipientID, d.LockID, d.Subject, d.Events, at.UTC())
	return perr.FromPostgres(err, "insert digest delivery")
}

// Count returns how many deliveries were logged for recipientID
func (s *pg) Count(ctx context.Context, recipientID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT count(*) FROM digest_deliveries WHERE recipient_id = $1`, recipientID).Scan(&n)
	return n, perr.FromPostgres(err, "count digest deliveries")
}

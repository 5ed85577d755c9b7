package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	perr "ghdigest/internal/platform/errors"
)

type stubQ struct{}

func (stubQ) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubQ) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (stubQ) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

type auditBinder struct{}

func (auditBinder) Bind(q Queryer) Queryer { return q }

func panicOf(t *testing.T, fn func()) (r any) {
	t.Helper()
	defer func() { r = recover() }()
	fn()
	return nil
}

func TestMustBind(t *testing.T) {
	t.Parallel()
	var q Queryer = stubQ{}
	if got := MustBind[Queryer](auditBinder{}, q); got != q {
		t.Fatalf("MustBind returned %v", got)
	}

	r := panicOf(t, func() { MustBind[Queryer](auditBinder{}, nil) })
	err, ok := r.(error)
	if !ok || !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("nil queryer panic = %v", r)
	}
}

type guardFunc func(context.Context) error

func (f guardFunc) Guard(ctx context.Context) error { return f(ctx) }

func TestMustGuard(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	MustGuard(context.Background(), guardFunc(func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}))
	if left := time.Until(deadline); left <= 0 || left > StartupTimeout {
		t.Fatalf("default deadline not applied: %v", left)
	}

	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	want, _ := parent.Deadline()
	MustGuard(parent, guardFunc(func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}))
	if !deadline.Equal(want) {
		t.Fatalf("parent deadline replaced: %v != %v", deadline, want)
	}

	boom := errors.New("redis down")
	r := panicOf(t, func() {
		MustGuard(context.Background(), guardFunc(func(context.Context) error { return boom }))
	})
	err, ok := r.(error)
	if !ok || !errors.Is(err, boom) || !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("guard panic = %v", r)
	}
}

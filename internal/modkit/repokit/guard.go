package repokit

import (
	"context"
	"time"

	perr "ghdigest/internal/platform/errors"
)

// StartupTimeout bounds MustGuard when ctx carries no deadline
const StartupTimeout = 30 * time.Second

type guarder interface {
	Guard(context.Context) error
}

// MustGuard checks every opened backend and panics when one is unreachable.
// Binaries call it once before wiring modules
func MustGuard(ctx context.Context, st guarder) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, StartupTimeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(perr.Wrap(err, perr.ErrorCodeUnavailable, "backend guard failed"))
	}
}

package repokit

import perr "ghdigest/internal/platform/errors"

// Binder turns a Queryer into a repo; SQL repos export one from NewPG
type Binder[T any] interface {
	Bind(Queryer) T
}

// MustBind binds b to q. A nil q means the composition root wired a SQL repo
// without a pool and panics with a Config error
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic(perr.Configf("repokit: binding %T without a Queryer", b))
	}
	return b.Bind(q)
}

package modkit

import (
	"net/http"
	"testing"
)

func TestBuild(t *testing.T) {
	t.Parallel()
	noop := func(next http.Handler) http.Handler { return next }
	b := Build(
		WithName("meta"),
		WithPrefix("/meta"),
		WithMiddlewares(noop),
		WithPrefix("/status"),
		WithMiddlewares(noop, noop),
	)
	if b.Name != "meta" || b.Prefix != "/status" || len(b.Mw) != 3 {
		t.Fatalf("built = %+v", b)
	}
	if z := Build(); z.Name != "" || z.Mw != nil {
		t.Fatalf("zero build = %+v", z)
	}
}

package net_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	pnet "ghdigest/internal/platform/net"
)

func TestWithRequestID(t *testing.T) {
	t.Parallel()
	base := context.Background()

	if ctx := pnet.WithRequestID(base, ""); ctx != base {
		t.Fatalf("empty id should leave ctx unchanged")
	}
	if got := pnet.RequestID(pnet.WithRequestID(base, "req-1")); got != "req-1" {
		t.Fatalf("RequestID = %q, want req-1", got)
	}
	if got := pnet.RequestID(base); got != "" {
		t.Fatalf("RequestID on bare ctx = %q", got)
	}
}

func TestRequestID_FromChiMiddleware(t *testing.T) {
	t.Parallel()
	var seen string
	h := chimw.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = pnet.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimw.RequestIDHeader, "upstream-7")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "upstream-7" {
		t.Fatalf("propagated id = %q", seen)
	}
}

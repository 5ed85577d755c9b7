package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "ghdigest/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestRouter_RouteAndHandle(t *testing.T) {
	t.Parallel()
	srv := phttp.NewServer(phttp.ServerConfig{})
	r := srv.Router()
	var order []string
	r.Route("/api", func(api phttp.Router) {
		api.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, "mw")
				next.ServeHTTP(w, req)
			})
		})
		api.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "get")
			w.WriteHeader(http.StatusNoContent)
		})
	})
	r.Handle("/raw", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	if rr.Code != http.StatusNoContent || len(order) != 2 || order[0] != "mw" {
		t.Fatalf("code=%d order=%v", rr.Code, order)
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/ping", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST on GET route = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/raw", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("Handle route = %d", rr.Code)
	}
}

func TestServer_DefaultsAndOptions(t *testing.T) {
	t.Parallel()
	called := false
	srv := phttp.NewServer(phttp.ServerConfig{}, func(*chi.Mux) { called = true })
	if srv.Addr() != ":4000" || !called {
		t.Fatalf("addr=%q opt called=%v", srv.Addr(), called)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	srv := phttp.NewServer(phttp.ServerConfig{Addr: "127.0.0.1:0", ShutdownGrace: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

package httpkit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"ghdigest/internal/modkit/httpkit"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/metrics"
	phttp "ghdigest/internal/platform/net/http"
)

func serve(t *testing.T, mount func(httpkit.Router), method, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := phttp.NewServer(phttp.ServerConfig{})
	mount(srv.Router())
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestMountUnder_ScopesMiddleware(t *testing.T) {
	t.Parallel()
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Scoped", "1")
			next.ServeHTTP(w, r)
		})
	}
	pong := httpkit.Call(func(*http.Request) (any, error) { return "pong", nil })
	mount := func(r httpkit.Router) {
		httpkit.MountUnder(r, "unsubscribe/", []func(http.Handler) http.Handler{tag}, func(m httpkit.Router) {
			m.Get("/", pong)
		})
		httpkit.MountUnder(r, "", []func(http.Handler) http.Handler{tag}, func(m httpkit.Router) {
			m.Get("/health", pong)
		})
		r.Get("/outside", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	}

	for _, path := range []string{"/unsubscribe", "/health"} {
		rr := serve(t, mount, http.MethodGet, path)
		if rr.Code != http.StatusOK || rr.Header().Get("X-Scoped") != "1" {
			t.Fatalf("%s: code=%d scoped=%q", path, rr.Code, rr.Header().Get("X-Scoped"))
		}
	}
	if rr := serve(t, mount, http.MethodGet, "/outside"); rr.Code != http.StatusOK || rr.Header().Get("X-Scoped") != "" {
		t.Fatalf("middleware leaked outside its scope")
	}
}

func TestCall(t *testing.T) {
	t.Parallel()
	mount := func(r httpkit.Router) {
		r.Get("/ok", httpkit.Call(func(*http.Request) (any, error) { return map[string]int{"n": 1}, nil }))
		r.Get("/err", httpkit.Call(func(*http.Request) (any, error) { return nil, perr.Forbiddenf("nope") }))
		r.Get("/raw", httpkit.Call(func(*http.Request) (any, error) {
			return httpkit.Response{Status: http.StatusAccepted, Body: "later"}, nil
		}))
	}
	if rr := serve(t, mount, http.MethodGet, "/ok"); rr.Code != http.StatusOK {
		t.Fatalf("ok = %d", rr.Code)
	}
	rr := serve(t, mount, http.MethodGet, "/err")
	var env httpkit.Envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	if rr.Code != http.StatusForbidden || env.Code != perr.ErrorCodeForbidden {
		t.Fatalf("err = %d %+v", rr.Code, env)
	}
	if rr := serve(t, mount, http.MethodGet, "/raw"); rr.Code != http.StatusAccepted {
		t.Fatalf("passthrough = %d", rr.Code)
	}
}

func TestCommonStack(t *testing.T) {
	t.Parallel()
	rec := metrics.NewRecorder()
	mount := func(r httpkit.Router) {
		r.Use(httpkit.CommonStack(httpkit.StackOptions{Metrics: rec})...)
		r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("x") })
	}
	if rr := serve(t, mount, http.MethodGet, "/ping"); rr.Code != http.StatusOK {
		t.Fatalf("heartbeat = %d", rr.Code)
	}
	if rr := serve(t, mount, http.MethodGet, "/boom"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("panic = %d", rr.Code)
	}
	if rec.Count(metrics.HTTPRequests, http.MethodGet, "5xx") != 1 {
		t.Fatalf("panic not counted as 5xx")
	}
}

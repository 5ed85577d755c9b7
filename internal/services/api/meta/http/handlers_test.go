package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	phttp "ghdigest/internal/platform/net/http"
	metahttp "ghdigest/internal/services/api/meta/http"
)

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func serve(t *testing.T, d metahttp.Deps, path string) (int, map[string]any) {
	t.Helper()
	srv := phttp.NewServer(phttp.ServerConfig{})
	metahttp.Register(srv.Router(), d)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rr.Code, env.Data
}

func deps(checks ...metahttp.Check) metahttp.Deps {
	return metahttp.Deps{
		Service:   "ghdigest-api",
		StartedAt: t0,
		Checks:    checks,
		Now:       func() time.Time { return t0.Add(90 * time.Second) },
	}
}

func ok(context.Context) error { return nil }

func TestHealth(t *testing.T) {
	t.Parallel()
	code, data := serve(t, deps(), "/health")
	if code != http.StatusOK || data["ok"] != true || data["service"] != "ghdigest-api" || data["uptime"] != float64(90) {
		t.Fatalf("code=%d data=%v", code, data)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()
	code, data := serve(t, deps(metahttp.Check{Name: "redis", Ping: ok}), "/ready")
	if code != http.StatusOK || data["status"] != "ok" {
		t.Fatalf("healthy: code=%d data=%v", code, data)
	}

	down := metahttp.Check{Name: "pg", Ping: func(context.Context) error { return errors.New("refused") }}
	code, data = serve(t, deps(metahttp.Check{Name: "redis", Ping: ok}, down), "/ready")
	if code != http.StatusServiceUnavailable || data["status"] != "fail" {
		t.Fatalf("degraded: code=%d data=%v", code, data)
	}
	checks, _ := data["checks"].([]any)
	if len(checks) != 2 {
		t.Fatalf("checks = %v", data["checks"])
	}
	if pg, _ := checks[1].(map[string]any); pg["error"] != "refused" {
		t.Fatalf("pg check = %v", checks[1])
	}
}

func TestReady_PingsShareDeadline(t *testing.T) {
	t.Parallel()
	slow := metahttp.Check{Name: "redis", Ping: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	d := deps(slow)
	d.Timeout = 20 * time.Millisecond
	if code, _ := serve(t, d, "/ready"); code != http.StatusServiceUnavailable {
		t.Fatalf("hung ping should fail readiness, got %d", code)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()
	code, data := serve(t, deps(), "/version")
	if code != http.StatusOK || data["service"] != "ghdigest-api" || data["version"] == "" {
		t.Fatalf("code=%d data=%v", code, data)
	}
}

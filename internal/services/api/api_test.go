package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ghdigest/internal/core/digest"
	"ghdigest/internal/core/keys"
	"ghdigest/internal/core/recipient"
	"ghdigest/internal/modkit"
	"ghdigest/internal/modkit/module"
	"ghdigest/internal/platform/metrics"
	phttp "ghdigest/internal/platform/net/http"
	"ghdigest/internal/platform/store/kv/kvtest"

	"ghdigest/internal/services/api"
	metamod "ghdigest/internal/services/api/meta/module"
	unsubmod "ghdigest/internal/services/api/unsubscribe/module"
	recdom "ghdigest/internal/services/recipients/domain"
	recmod "ghdigest/internal/services/recipients/module"
)

const secret = "0123456789abcdef0123"

func TestMount_EndToEnd(t *testing.T) {
	t.Setenv("CORE_SECRET", secret)

	mr, c := kvtest.New(t)
	mr.HSet("ns:users:42", recipient.FieldLogin, "bob", recipient.FieldToken, "tok", recipient.FieldGitHubID, "42")

	prom := metrics.NewProm("apitest")
	deps := modkit.Deps{KV: c, Keys: keys.New("ns"), Metrics: prom}
	recipients := recmod.New(deps)
	mods := []module.Module{
		metamod.New(deps, "ghdigest-api"),
		unsubmod.New(deps, module.MustPortsOf[recdom.PreferencesPort](recipients)),
	}

	srv := phttp.NewServer(phttp.ServerConfig{})
	api.Mount(srv.Router(), api.Options{Metrics: prom, MetricsHandler: prom.Handler()}, mods...)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, body := get("/ready"); code != http.StatusOK || !strings.Contains(body, `"redis"`) {
		t.Fatalf("ready: %d %s", code, body)
	}

	signer := digest.Signer{Secret: []byte(secret)}
	expiry := time.Now().Add(time.Hour).Unix()
	query := "/unsubscribe?id=42&expiry=" + strconv.FormatInt(expiry, 10) + "&v=" + signer.Sign("42", expiry)
	if code, body := get(query); code != http.StatusOK {
		t.Fatalf("unsubscribe: %d %s", code, body)
	}
	if mr.HGet("ns:users:42", recipient.FieldUnsubscribed) != "1" {
		t.Fatalf("flag not stored")
	}

	forged := "/unsubscribe?id=42&expiry=" + strconv.FormatInt(expiry, 10) + "&v=" + signer.Sign("43", expiry)
	if code, _ := get(forged); code != http.StatusForbidden {
		t.Fatalf("forged link = %d", code)
	}

	if got := testutil.ToFloat64(prom.Counter(metrics.Unsubscribes, "ok")); got != 1 {
		t.Fatalf("unsubscribe ok = %v", got)
	}
	if got := testutil.ToFloat64(prom.Counter(metrics.HTTPRequests, http.MethodGet, "4xx")); got != 1 {
		t.Fatalf("4xx requests = %v", got)
	}
	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "apitest_unsubscribe_total") {
		t.Fatalf("metrics: %d\n%s", code, body)
	}
}

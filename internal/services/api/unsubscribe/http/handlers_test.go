package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	perr "ghdigest/internal/platform/errors"
	phttp "ghdigest/internal/platform/net/http"

	"ghdigest/internal/services/api/unsubscribe/domain"
	unsubhttp "ghdigest/internal/services/api/unsubscribe/http"
)

type fakeSvc struct {
	got []domain.Link
	err error
}

func (f *fakeSvc) Unsubscribe(_ context.Context, l domain.Link) (domain.Result, error) {
	f.got = append(f.got, l)
	if f.err != nil {
		return domain.Result{}, f.err
	}
	return domain.Result{ID: l.ID, Unsubscribed: true}, nil
}

var mac = strings.Repeat("ab", 64)

func call(t *testing.T, svc domain.UnsubscribePort, query string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	srv := phttp.NewServer(phttp.ServerConfig{})
	srv.Router().Route("/unsubscribe", func(r phttp.Router) { unsubhttp.Register(r, svc) })
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/unsubscribe?"+query, nil))
	var env phttp.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rr.Body.String())
	}
	return rr, env
}

func TestUnsubscribe_OK(t *testing.T) {
	t.Parallel()
	svc := &fakeSvc{}
	rr, env := call(t, svc, "id=42&expiry=1741608000&v="+mac)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d (%+v)", rr.Code, env)
	}
	data, _ := env.Data.(map[string]any)
	if data["unsubscribed"] != true || data["id"] != "42" {
		t.Fatalf("data = %v", env.Data)
	}
	if len(svc.got) != 1 || svc.got[0] != (domain.Link{ID: "42", Expiry: 1741608000, MAC: mac}) {
		t.Fatalf("service saw %+v", svc.got)
	}
}

func TestUnsubscribe_BadQuery(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, query, field string
		status             int
	}{
		{"missing id", "expiry=1&v=" + mac, "id", http.StatusBadRequest},
		{"non numeric expiry", "id=42&expiry=soon&v=" + mac, "expiry", http.StatusBadRequest},
		{"short mac", "id=42&expiry=1&v=abcd", "v", http.StatusBadRequest},
		{"expiry overflow", "id=42&expiry=99999999999999999999&v=" + mac, "expiry", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		svc := &fakeSvc{}
		rr, env := call(t, svc, tc.query)
		if rr.Code != tc.status || env.Field != tc.field {
			t.Fatalf("%s: code=%d env=%+v", tc.name, rr.Code, env)
		}
		if len(svc.got) != 0 {
			t.Fatalf("%s: service must not be called", tc.name)
		}
	}
}

func TestUnsubscribe_ServiceErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err    error
		status int
	}{
		{perr.Forbiddenf("signature mismatch"), http.StatusForbidden},
		{perr.NotFoundf("recipient 42 not found"), http.StatusNotFound},
		{perr.Unavailablef("redis down"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rr, env := call(t, &fakeSvc{err: tc.err}, "id=42&expiry=1&v="+mac)
		if rr.Code != tc.status || env.Code != perr.CodeOf(tc.err) {
			t.Fatalf("%v: code=%d env=%+v", tc.err, rr.Code, env)
		}
	}
}

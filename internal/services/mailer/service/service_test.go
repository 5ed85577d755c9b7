package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"ghdigest/internal/adapters/mail"
	"ghdigest/internal/core/digest"
	"ghdigest/internal/core/recipient"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/platform/store/kv/kvtest"
	"ghdigest/internal/platform/testkit"
	jobsdom "ghdigest/internal/services/jobs/domain"
	"ghdigest/internal/services/mailer/domain"
	"ghdigest/internal/services/mailer/repo"
)

type fakeAudit struct {
	mu   sync.Mutex
	rows []domain.Delivery
	err  error
}

func (f *fakeAudit) EnsureSchema(context.Context) error { return nil }

func (f *fakeAudit) Record(_ context.Context, d domain.Delivery, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, d)
	return f.err
}

func (f *fakeAudit) Count(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.RecipientID == id {
			n++
		}
	}
	return n, nil
}

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newSvc(t *testing.T) (*Svc, *miniredis.Miniredis, *mail.Mock, *fakeAudit, *metrics.Recorder) {
	t.Helper()
	mr, c := kvtest.New(t)
	mock := &mail.Mock{}
	audit := &fakeAudit{}
	rec := metrics.NewRecorder()
	s := New(repo.NewGuard(c), audit, mail.MustRenderer(), mock, Config{From: "notify@example.com"}, rec)
	s.now = func() time.Time { return t0 }
	return s, mr, mock, audit, rec
}

func request() domain.Request {
	return domain.Request{
		To:          "bob@example.com",
		Subject:     "You have a new notification",
		ContentType: "html",
		Template:    "notification",
		Locals: mail.Locals{
			Events:            []digest.Line{{HTML: `<a href="https://github.com/alice">alice</a> starred`, Timestamp: t0.Unix()}},
			Username:          "bob",
			UnsubscribeURL:    "https://example.com/unsubscribe?id=42",
			NotificationsText: "You have a new notification!<br />You notification was received on Sunday Mar 10 at 12:00.",
			SiteURL:           "https://example.com/",
		},
		DeleteKey: "ns:processing:events:batch:42",
		LockKey:   "ns:locks:email:42",
		LockID:    []string{"1_star_1710028800"},
		UserKey:   "ns:users:42",
	}
}

func TestDeliver_SendsAndCommits(t *testing.T) {
	t.Parallel()
	s, mr, mock, audit, rec := newSvc(t)
	_, _ = mr.Lpush("ns:processing:events:batch:42", "e")

	out, err := s.Deliver(context.Background(), request())
	if err != nil || !out.Sent {
		t.Fatalf("out=%+v err=%v", out, err)
	}
	sent := mock.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages", len(sent))
	}
	m := sent[0]
	if m.From != "notify@example.com" || m.To != "bob@example.com" || m.Unsubscribe != "https://example.com/unsubscribe?id=42" {
		t.Fatalf("message = %+v", m)
	}
	testkit.MustContain(t, m.HTML, "alice</a> starred")
	testkit.MustContain(t, m.Text, "alice starred")

	if mr.Exists("ns:processing:events:batch:42") {
		t.Fatalf("processing buffer should be deleted")
	}
	if mr.HGet("ns:users:42", recipient.FieldLastSent) != "1710072000" {
		t.Fatalf("last sent = %q", mr.HGet("ns:users:42", recipient.FieldLastSent))
	}
	members, _ := mr.ZMembers("ns:locks:email:42")
	if len(members) != 1 || members[0] != `["1_star_1710028800"]` {
		t.Fatalf("zset members = %v", members)
	}
	if len(audit.rows) != 1 || audit.rows[0].RecipientID != "42" || audit.rows[0].Events != 1 {
		t.Fatalf("audit = %+v", audit.rows)
	}
	if rec.Count(metrics.MailerDeliveries, "sent") != 1 {
		t.Fatalf("sent metric missing")
	}
}

func TestDeliver_AtMostOncePerIdentityList(t *testing.T) {
	t.Parallel()
	s, mr, mock, _, rec := newSvc(t)
	ctx := context.Background()

	for range 3 {
		if _, err := s.Deliver(ctx, request()); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	if n := len(mock.Sent()); n != 1 {
		t.Fatalf("sent %d times", n)
	}
	if rec.Count(metrics.MailerDeliveries, "duplicate") != 2 {
		t.Fatalf("duplicates not counted")
	}

	other := request()
	other.LockID = []string{"2_star_1710028800"}
	if out, err := s.Deliver(ctx, other); err != nil || !out.Sent {
		t.Fatalf("different identities must send: out=%+v err=%v", out, err)
	}
	if members, _ := mr.ZMembers("ns:locks:email:42"); len(members) != 2 {
		t.Fatalf("zset = %v", members)
	}
}

func TestDeliver_SendFailureCommitsNothing(t *testing.T) {
	t.Parallel()
	s, mr, mock, audit, _ := newSvc(t)
	mock.Fail = errors.New("connection refused")
	_, _ = mr.Lpush("ns:processing:events:batch:42", "e")

	_, err := s.Deliver(context.Background(), request())
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || !perr.Retryable(err) {
		t.Fatalf("err = %v", err)
	}
	if !mr.Exists("ns:processing:events:batch:42") || mr.Exists("ns:locks:email:42") || mr.Exists("ns:users:42") {
		t.Fatalf("nothing may be committed after a failed send")
	}
	if len(audit.rows) != 0 {
		t.Fatalf("audit written on failure")
	}

	mock.Fail = nil
	if out, err := s.Deliver(context.Background(), request()); err != nil || !out.Sent {
		t.Fatalf("retry after failure: out=%+v err=%v", out, err)
	}
}

func TestDeliver_InvalidRequests(t *testing.T) {
	t.Parallel()
	s, _, mock, _, _ := newSvc(t)
	cases := []struct {
		name string
		mut  func(*domain.Request)
		code perr.ErrorCode
	}{
		{"no template", func(r *domain.Request) { r.Template = "" }, perr.ErrorCodeConfig},
		{"unknown template", func(r *domain.Request) { r.Template = "missing" }, perr.ErrorCodeConfig},
		{"no address", func(r *domain.Request) { r.To = "" }, perr.ErrorCodeValidation},
	}
	for _, tc := range cases {
		req := request()
		tc.mut(&req)
		_, err := s.Deliver(context.Background(), req)
		if !perr.IsCode(err, tc.code) || !perr.Permanent(err) {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
	}
	if len(mock.Sent()) != 0 {
		t.Fatalf("invalid requests must not send")
	}
}

func TestDeliver_WithoutLockIDAlwaysSends(t *testing.T) {
	t.Parallel()
	s, mr, mock, _, _ := newSvc(t)
	req := request()
	req.LockID = nil
	for range 2 {
		if _, err := s.Deliver(context.Background(), req); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	if len(mock.Sent()) != 2 || mr.Exists("ns:locks:email:42") {
		t.Fatalf("sent=%d", len(mock.Sent()))
	}
}

func TestDeliver_AuditFailureOnlyLogs(t *testing.T) {
	t.Parallel()
	s, _, _, audit, _ := newSvc(t)
	audit.err = errors.New("db down")
	if out, err := s.Deliver(context.Background(), request()); err != nil || !out.Sent {
		t.Fatalf("out=%+v err=%v", out, err)
	}
}

func TestDeliver_DisabledTransportCountsAsHandled(t *testing.T) {
	t.Parallel()
	mr, c := kvtest.New(t)
	s := New(repo.NewGuard(c), nil, mail.MustRenderer(), mail.Disabled{}, Config{}, nil)
	if out, err := s.Deliver(context.Background(), request()); err != nil || !out.Sent {
		t.Fatalf("out=%+v err=%v", out, err)
	}
	if !mr.Exists("ns:locks:email:42") {
		t.Fatalf("disabled delivery should still be recorded")
	}
}

func TestHandleJob(t *testing.T) {
	t.Parallel()
	s, _, mock, _, _ := newSvc(t)
	raw := []byte(`{"to":"bob@example.com","subject":"hi","content_type":"text","template":"notification",
		"locals":{"events":[{"html":"x","timestamp":1}],"username":"bob"},"lock_key":"ns:locks:email:42","lock_id":["a"]}`)
	if err := s.HandleJob(context.Background(), jobsdom.Job{Kind: jobsdom.KindDeliver, Payload: raw}); err != nil {
		t.Fatalf("HandleJob: %v", err)
	}
	sent := mock.Sent()
	if len(sent) != 1 || sent[0].HTML != "" || sent[0].Subject != "hi" {
		t.Fatalf("sent = %+v", sent)
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/platform/testkit"
	jobsdom "ghdigest/internal/services/jobs/domain"
)

type fakeScanner struct {
	batches [][]string
	block   chan struct{}
	err     error
}

func (f *fakeScanner) ScanIDs(_ context.Context, _ int64, fn func([]string) error) error {
	if f.block != nil {
		<-f.block
	}
	for _, b := range f.batches {
		if err := fn(b); err != nil {
			return err
		}
	}
	return f.err
}

type fakeJobs struct {
	mu   sync.Mutex
	ids  []string
	fail error
}

func (f *fakeJobs) Enqueue(_ context.Context, queue, kind string, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	if queue != jobsdom.QueueChecker || kind != jobsdom.KindCheck {
		return "", errors.New("wrong queue")
	}
	f.ids = append(f.ids, payload.(jobsdom.CheckPayload).UserID)
	return "j", nil
}

func (f *fakeJobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

func TestTick_EnqueuesEveryRecipient(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{}
	rec := metrics.NewRecorder()
	s := New(&fakeScanner{batches: [][]string{{"1", "2"}, {"3"}}}, jobs, Config{}, rec)

	n, err := s.Tick(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if len(jobs.ids) != 3 || jobs.ids[2] != "3" || rec.Count(metrics.SchedulerEnqueued) != 3 {
		t.Fatalf("ids = %v", jobs.ids)
	}
}

func TestTick_SkipsWhilePreviousRuns(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	jobs := &fakeJobs{}
	s := New(&fakeScanner{batches: [][]string{{"1"}}, block: block}, jobs, Config{}, nil)

	done := make(chan int)
	go func() {
		n, _ := s.Tick(context.Background())
		done <- n
	}()
	testkit.Eventually(t, time.Second, s.running.Load, "first tick never started")

	if n, err := s.Tick(context.Background()); err != nil || n != 0 {
		t.Fatalf("overlapping tick: n=%d err=%v", n, err)
	}
	close(block)
	if n := <-done; n != 1 {
		t.Fatalf("first tick enqueued %d", n)
	}
	if n, _ := s.Tick(context.Background()); n != 1 {
		t.Fatalf("a later tick should run again, got %d", n)
	}
}

func TestTick_Errors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := New(&fakeScanner{batches: [][]string{{"1"}}}, &fakeJobs{fail: boom}, Config{}, nil)
	if _, err := s.Tick(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("enqueue error = %v", err)
	}
	s = New(&fakeScanner{err: boom}, &fakeJobs{}, Config{}, nil)
	if _, err := s.Tick(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("scan error = %v", err)
	}
}

func TestRun_BadSpec(t *testing.T) {
	t.Parallel()
	s := New(&fakeScanner{}, &fakeJobs{}, Config{Spec: "every now and then"}, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("bad spec should fail")
	}
}

func TestRun_TicksOnStartAndStops(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{}
	s := New(&fakeScanner{batches: [][]string{{"1"}}}, jobs, Config{Spec: "@every 1h", RunOnStart: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	testkit.Eventually(t, 2*time.Second, func() bool { return jobs.count() == 1 }, "run-on-start tick missing")
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
}

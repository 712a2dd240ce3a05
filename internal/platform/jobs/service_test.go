package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"wagevo/internal/platform/kv"
)

func TestRunNowRecordsOutcome(t *testing.T) {
	ctx := context.Background()
	svc := New(kv.NewMemory(), 0)

	if _, err := svc.RunNow(ctx, "demo", func(context.Context) (any, error) {
		return map[string]int{"n": 1}, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	run, found, err := svc.LastRun(ctx, "demo")
	if err != nil || !found {
		t.Fatalf("expected recorded run, found=%v err=%v", found, err)
	}
	if run.Status != "completed" || run.ID == "" {
		t.Fatalf("unexpected run %+v", run)
	}

	boom := errors.New("boom")
	if _, err := svc.RunNow(ctx, "demo", func(context.Context) (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	run, _, _ = svc.LastRun(ctx, "demo")
	if run.Status != "failed" || run.Error != "boom" {
		t.Fatalf("expected failed run, got %+v", run)
	}
}

func TestWorkerDrainsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := New(kv.NewMemory(), 0)
	svc.Start(ctx)

	done := make(chan struct{})
	if err := svc.Enqueue("demo", func(context.Context) (any, error) {
		close(done)
		return nil, nil
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	svc.Wait()
}

func TestEnqueueReportsFullQueue(t *testing.T) {
	svc := New(kv.NewMemory(), 0)
	noop := func(context.Context) (any, error) { return nil, nil }
	for i := 0; i < queueSize; i++ {
		if err := svc.Enqueue("demo", noop); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := svc.Enqueue("demo", noop); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestCompactSkipsBackendsWithoutCompaction(t *testing.T) {
	svc := New(kv.NewMemory(), time.Minute)
	details, err := svc.Compact(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m, ok := details.(map[string]any); !ok || m["skipped"] != true {
		t.Fatalf("expected skipped compaction, got %v", details)
	}
}

func TestCompactRunsOnSQLite(t *testing.T) {
	store, err := kv.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()
	svc := New(store, time.Minute)
	if _, err := svc.RunNow(context.Background(), JobCompaction, svc.Compact); err != nil {
		t.Fatalf("compact: %v", err)
	}
	run, found, _ := svc.LastRun(context.Background(), JobCompaction)
	if !found || run.Status != "completed" {
		t.Fatalf("expected completed compaction run, got %+v", run)
	}
}

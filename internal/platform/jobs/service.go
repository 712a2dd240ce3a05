// Package jobs runs background housekeeping off the request path and records
// the outcome of every run in the key/value store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"wagevo/internal/platform/kv"
)

const (
	JobCompaction = "kv_compaction"

	runKeyPrefix = "jobs/last/"
	queueSize    = 32
)

var ErrQueueFull = errors.New("job queue full")

// Run is the recorded outcome of one job execution.
type Run struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Details     any       `json:"details,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

type Service struct {
	DB       kv.Store
	Interval time.Duration
	queue    chan job
	wg       sync.WaitGroup
}

// New returns a Service that compacts db every interval. A zero interval
// leaves scheduling off; jobs can still be enqueued.
func New(db kv.Store, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Interval: interval,
		queue:    make(chan job, queueSize),
	}
}

// Start launches the worker and, when configured, the compaction schedule.
// Both stop with ctx; Wait blocks until they have.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	if _, ok := s.DB.(kv.Compactor); ok && s.Interval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.scheduleCompaction(ctx, s.Interval)
		}()
	}
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) error {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return nil
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return ErrQueueFull
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// LastRun returns the most recent recorded run of jobType.
func (s *Service) LastRun(ctx context.Context, jobType string) (Run, bool, error) {
	raw, err := s.DB.Get(ctx, runKeyPrefix+jobType)
	if errors.Is(err, kv.ErrNotFound) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	var run Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return Run{}, false, fmt.Errorf("decode job run: %w", err)
	}
	return run, true, nil
}

// Compact runs one compaction pass of the store.
func (s *Service) Compact(ctx context.Context) (any, error) {
	c, ok := s.DB.(kv.Compactor)
	if !ok {
		return map[string]any{"skipped": true}, nil
	}
	started := time.Now()
	if err := c.Compact(ctx); err != nil {
		return nil, err
	}
	return map[string]any{"durationMs": time.Since(started).Milliseconds()}, nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{ID: uuid.NewString(), Type: j.Type, Status: "completed", StartedAt: time.Now().UTC()}
	details, err := j.Run(ctx)
	run.CompletedAt = time.Now().UTC()
	run.Details = details
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}

	encoded, marshalErr := json.Marshal(run)
	if marshalErr != nil {
		slog.Warn("job run marshal failed", "jobType", j.Type, "err", marshalErr)
		return details, err
	}
	if setErr := s.DB.Set(ctx, runKeyPrefix+j.Type, encoded); setErr != nil {
		slog.Warn("job run record failed", "jobType", j.Type, "err", setErr)
	}
	return details, err
}

func (s *Service) scheduleCompaction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Enqueue(JobCompaction, s.Compact)
		}
	}
}

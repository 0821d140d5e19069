// Package scheduler runs periodic maintenance for the pipeline: sweeping
// idle provider connections and compacting the audit store. The cadence is a
// standard five-field cron expression.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/innkeep/innkeep/pkg/schema"
)

// DefaultSchedule runs maintenance every five minutes.
const DefaultSchedule = "*/5 * * * *"

// Task is one named maintenance routine.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler executes registered tasks whenever the cron schedule fires.
type Scheduler struct {
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger

	mu     sync.Mutex
	tasks  []Task
	cancel context.CancelFunc
	done   chan struct{}
	next   time.Time

	inflightMu sync.Mutex
	inflight   map[string]struct{} // task names currently executing (dedup)
}

// New parses the cron spec and creates a stopped scheduler. An empty spec
// uses DefaultSchedule.
func New(spec string, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeConfig,
			"invalid maintenance schedule %q: %s", spec, err.Error()).WithCause(err)
	}
	return &Scheduler{
		schedule: schedule,
		spec:     spec,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}, nil
}

// Register adds a maintenance task. Safe before or after Start.
func (s *Scheduler) Register(name string, run func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, Task{Name: name, Run: run})
}

// Start launches the background loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return schema.NewError(schema.ErrCodeConfig, "scheduler already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.next = s.schedule.Next(time.Now())
	s.mu.Unlock()

	go s.loop(loopCtx)
	s.logger.Info("maintenance scheduler started", "schedule", s.spec)
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			due := !now.Before(s.next)
			if due {
				s.next = s.schedule.Next(now)
			}
			s.mu.Unlock()
			if due {
				s.RunNow(ctx)
			}
		}
	}
}

// RunNow executes every registered task once, sequentially. A task still
// running from a previous pass is skipped.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.mu.Lock()
	tasks := make([]Task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	for _, task := range tasks {
		if !s.tryAcquire(task.Name) {
			continue
		}
		started := time.Now()
		if err := task.Run(ctx); err != nil {
			s.logger.Error("maintenance task failed",
				slog.String("task", task.Name),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Debug("maintenance task completed",
				slog.String("task", task.Name),
				slog.Duration("elapsed", time.Since(started)),
			)
		}
		s.release(task.Name)
	}
}

func (s *Scheduler) tryAcquire(name string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[name]; busy {
		return false
	}
	s.inflight[name] = struct{}{}
	return true
}

func (s *Scheduler) release(name string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, name)
}

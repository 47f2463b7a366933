package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ErrTaskRunning = errors.New("task already running")
	ErrUnknownTask = errors.New("unknown task")
)

var taskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "worker_task_runs_total",
	Help: "Background task runs by task and result",
}, []string{"task", "result"})

// Task is a periodic job. Run must be safe to call again after a failure.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Locker grants a named lease shared across replicas.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

type taskState struct {
	Task
	running atomic.Bool
}

// Scheduler runs each task on its own ticker. A tick that finds the previous run of
// the same task still in flight is skipped, never queued.
type Scheduler struct {
	tasks  map[string]*taskState
	order  []string
	locker Locker
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. locker may be nil for single-replica deployments.
func NewScheduler(locker Locker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		tasks:  map[string]*taskState{},
		locker: locker,
		logger: logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Add(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.Name]; !exists {
		s.order = append(s.order, t.Name)
	}
	s.tasks[t.Name] = &taskState{Task: t}
}

// Start launches one loop per task. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	for _, name := range s.order {
		t := s.tasks[name]
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.logger.Info("scheduler started", "tasks", len(s.order))
}

// Stop cancels all loops and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RunOnce runs a task immediately under the same guards as a tick.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.run(ctx, t)
}

func (s *Scheduler) loop(ctx context.Context, t *taskState) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.running.Load() {
				taskRuns.WithLabelValues(t.Name, "skipped").Inc()
				s.logger.Warn("previous run still in flight, skipping tick", "task", t.Name)
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				_ = s.run(ctx, t)
			}()
		}
	}
}

func (s *Scheduler) run(ctx context.Context, t *taskState) error {
	if !t.running.CompareAndSwap(false, true) {
		taskRuns.WithLabelValues(t.Name, "skipped").Inc()
		return ErrTaskRunning
	}
	defer t.running.Store(false)

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, t.Name, t.Interval)
		if err != nil {
			taskRuns.WithLabelValues(t.Name, "error").Inc()
			s.logger.Error("task lock unavailable", "task", t.Name, "error", err)
			return err
		}
		if !ok {
			taskRuns.WithLabelValues(t.Name, "locked").Inc()
			s.logger.Debug("task held by another replica", "task", t.Name)
			return ErrTaskRunning
		}
		defer release()
	}

	start := time.Now()
	if err := t.Run(ctx); err != nil {
		taskRuns.WithLabelValues(t.Name, "error").Inc()
		s.logger.Error("task failed", "task", t.Name, "duration", time.Since(start), "error", err)
		return err
	}
	taskRuns.WithLabelValues(t.Name, "ok").Inc()
	s.logger.Debug("task finished", "task", t.Name, "duration", time.Since(start))
	return nil
}

// Package scheduler is the single tick source of a game session. Periodic tasks run on a virtual timeline so
// that their order is deterministic and tests can fast-forward time.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/myrjola/unsolved/internal/errors"
)

var ErrInvalidInterval = errors.NewSentinel("interval must be positive")

// Task is invoked each time its interval elapses.
type Task func(ctx context.Context)

// IntervalFunc returns the delay until the next run. It is evaluated after every run.
type IntervalFunc func() time.Duration

type task struct {
	name     string
	interval IntervalFunc
	next     time.Duration
	order    int
	fn       Task
}

// Scheduler runs registered tasks in due-time order. Tasks due at the same instant run in registration order.
type Scheduler struct {
	logger *slog.Logger

	// advanceMu serializes Advance calls so that callbacks never run concurrently.
	advanceMu sync.Mutex
	mu        sync.Mutex
	elapsed   time.Duration
	tasks     []*task
	seq       int
	stop      chan struct{}
	stopOnce  sync.Once
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.With(slog.String("source", "scheduler")),
		stop:   make(chan struct{}),
	}
}

// Every registers fn to run every interval.
func (s *Scheduler) Every(name string, interval time.Duration, fn Task) error {
	if interval <= 0 {
		return errors.Wrap(ErrInvalidInterval, "register task",
			slog.String("task", name), slog.Duration("interval", interval))
	}
	return s.EveryDynamic(name, func() time.Duration { return interval }, fn)
}

// EveryDynamic registers fn with an interval that may change between runs, e.g., with the player's sanity.
func (s *Scheduler) EveryDynamic(name string, interval IntervalFunc, fn Task) error {
	first := interval()
	if first <= 0 {
		return errors.Wrap(ErrInvalidInterval, "register task",
			slog.String("task", name), slog.Duration("interval", first))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, &task{
		name:     name,
		interval: interval,
		next:     s.elapsed + first,
		order:    s.seq,
		fn:       fn,
	})
	s.seq++
	return nil
}

// Elapsed returns the virtual time since the scheduler was created.
func (s *Scheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Advance moves the virtual time forward by d and runs every task that falls due, in due-time order.
// A task whose interval is shorter than d runs several times.
func (s *Scheduler) Advance(ctx context.Context, d time.Duration) {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	s.mu.Lock()
	target := s.elapsed + d
	s.mu.Unlock()

	for ctx.Err() == nil {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		t.fn(ctx)
		s.reschedule(ctx, t)
	}

	s.mu.Lock()
	if s.elapsed < target {
		s.elapsed = target
	}
	s.mu.Unlock()
}

// nextDue pops the earliest task due at or before target and moves the virtual time to its due time.
func (s *Scheduler) nextDue(target time.Duration) *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due *task
	for _, t := range s.tasks {
		if t.next > target {
			continue
		}
		if due == nil || t.next < due.next || (t.next == due.next && t.order < due.order) {
			due = t
		}
	}
	if due != nil {
		s.elapsed = due.next
	}
	return due
}

func (s *Scheduler) reschedule(ctx context.Context, t *task) {
	interval := t.interval()
	if interval <= 0 {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "non-positive interval, using one second",
			slog.String("task", t.name), slog.Duration("interval", interval))
		interval = time.Second
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.next = s.elapsed + interval
}

// Run advances the scheduler by resolution on every wall-clock tick until ctx is done or Destroy is called.
func (s *Scheduler) Run(ctx context.Context, resolution time.Duration) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()
	s.logger.LogAttrs(ctx, slog.LevelDebug, "scheduler started", slog.Duration("resolution", resolution))
	for {
		select {
		case <-ctx.Done():
			s.logger.LogAttrs(ctx, slog.LevelDebug, "scheduler stopped by context")
			return
		case <-s.stop:
			s.logger.LogAttrs(ctx, slog.LevelDebug, "scheduler destroyed")
			return
		case <-ticker.C:
			s.Advance(ctx, resolution)
		}
	}
}

// Destroy removes every task and stops Run. It is safe to call more than once.
func (s *Scheduler) Destroy() {
	s.mu.Lock()
	s.tasks = nil
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

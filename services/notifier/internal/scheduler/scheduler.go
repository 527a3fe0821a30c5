package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one scheduled unit of work.
type Task func(ctx context.Context) error

// Scheduler triggers a task on a cron schedule. Runs never overlap: a tick
// that fires while the previous run is still going is dropped.
type Scheduler struct {
	c       *cron.Cron
	spec    string
	timeout time.Duration
	task    Task
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New validates spec and registers task. timeout bounds each run.
func New(spec string, loc *time.Location, timeout time.Duration, task Task, logger *slog.Logger) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("schedule is required")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		spec:    spec,
		timeout: timeout,
		task:    task,
		log:     logger.With("component", "scheduler"),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.c = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	if _, err := s.c.AddFunc(spec, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins triggering in the background.
func (s *Scheduler) Start() {
	s.c.Start()
	s.log.Info("scheduler started", "schedule", s.spec, "next", s.Next())
}

// Stop prevents new runs, cancels the in-flight one and waits for it.
func (s *Scheduler) Stop() {
	done := s.c.Stop()
	s.cancel()
	<-done.Done()
	s.log.Info("scheduler stopped")
}

// Next reports the next trigger time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runOnce() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := s.task(ctx); err != nil {
		s.log.Error("scheduled run failed", "err", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.log.Debug("scheduled run finished", "duration_ms", time.Since(start).Milliseconds())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append([]any{"err", err}, keysAndValues...)...)
}

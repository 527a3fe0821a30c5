package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsBadSpec(t *testing.T) {
	noop := func(context.Context) error { return nil }
	if _, err := New("", time.UTC, time.Second, noop, nil); err == nil {
		t.Fatalf("expected error for empty schedule")
	}
	if _, err := New("every day", time.UTC, time.Second, noop, nil); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
	if _, err := New("0 9 * * 1-5", time.UTC, time.Second, noop, nil); err != nil {
		t.Fatalf("cron expression rejected: %v", err)
	}
}

func TestSchedulerRunsTask(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{}, 1)
	s, err := New("@every 1s", time.UTC, time.Second, func(context.Context) error {
		runs.Add(1)
		select {
		case done <- struct{}{}:
		default:
		}
		return errors.New("logged, not fatal")
	}, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("task did not run")
	}
	if s.Next().IsZero() {
		t.Fatalf("expected next trigger time")
	}
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	var running, maxRunning, runs atomic.Int32
	s, err := New("@every 1s", time.UTC, 0, func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		runs.Add(1)
		select {
		case <-time.After(2500 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	time.Sleep(3500 * time.Millisecond)
	s.Stop()

	if runs.Load() == 0 {
		t.Fatalf("task never ran")
	}
	if maxRunning.Load() != 1 {
		t.Fatalf("runs overlapped: max concurrent = %d", maxRunning.Load())
	}
}

func TestStopCancelsInFlightRun(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	s, err := New("@every 1s", time.UTC, time.Minute, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatalf("task did not start")
	}
	s.Stop()
	select {
	case <-cancelled:
	default:
		t.Fatalf("in-flight run was not cancelled before Stop returned")
	}
}

package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vthunder/cube/internal/effectors"
	"github.com/vthunder/cube/internal/executive"
	"github.com/vthunder/cube/internal/focus"
	"github.com/vthunder/cube/internal/intent"
	"github.com/vthunder/cube/internal/memory"
	"github.com/vthunder/cube/internal/senses"
	"github.com/vthunder/cube/internal/types"
)

func newTestExecutive(t *testing.T) *executive.Executive {
	t.Helper()
	store, err := memory.Open(memory.DriverPure, filepath.Join(t.TempDir(), "objects.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	exec, err := executive.New(executive.Config{
		Hardware: effectors.NewMockHardware(),
		Memory:   store,
		Detector: senses.NewFixtureDetector(types.Detection{Label: "phone", Confidence: 0.9}),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return exec
}

func TestCommandRunsOnWorker(t *testing.T) {
	r := New(newTestExecutive(t), Options{
		PollInterval: time.Millisecond,
		Metrics:      executive.MustNewMetrics(prometheus.NewRegistry()),
	})
	r.Start()
	defer r.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := r.Command(ctx, "where are my keys?")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if resp.Intent != intent.KindFind {
		t.Errorf("Expected find intent, got %s", resp.Intent)
	}

	det, err := r.Detect(ctx, "frame.jpg", "kitchen")
	if err != nil || det.Count != 1 {
		t.Errorf("Expected one detection, got %+v (%v)", det, err)
	}

	resp, err = r.Command(ctx, "where is my phone")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if found := resp.Result.(executive.FindResult); !found.Found {
		t.Errorf("Expected phone to be found after detection, got %+v", found)
	}

	if err := r.ClearLaser(ctx); err != nil {
		t.Errorf("ClearLaser failed: %v", err)
	}
}

func TestTickerSubmitsTicks(t *testing.T) {
	var ticks int32
	r := New(newTestExecutive(t), Options{
		PollInterval: time.Millisecond,
		TickInterval: 5 * time.Millisecond,
		OnTick:       func(types.Status) { atomic.AddInt32(&ticks, 1) },
	})
	r.Start()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&ticks) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("ticker did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !r.Stop() {
		t.Error("Expected clean stop")
	}
	after := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&ticks) != after {
		t.Error("ticks should stop after Stop")
	}
}

func TestSubmitHonorsContext(t *testing.T) {
	r := New(newTestExecutive(t), Options{})
	// worker never started, so the task just waits in the queue
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Submit(ctx, focus.P1UserInput, "never", func() (any, error) { return nil, nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if r.Pending() != 1 {
		t.Errorf("Expected task to remain queued, got %d", r.Pending())
	}
}

func TestSubmitQueueFull(t *testing.T) {
	r := New(newTestExecutive(t), Options{QueueSize: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r.Submit(ctx, focus.P1UserInput, "first", func() (any, error) { return nil, nil })
	_, err := r.Submit(ctx, focus.P1UserInput, "second", func() (any, error) { return nil, nil })
	if !IsQueueFull(err) {
		t.Errorf("Expected queue full error, got %v", err)
	}
}

func TestSubmitReportsPanic(t *testing.T) {
	var failures atomic.Int32
	r := New(newTestExecutive(t), Options{PollInterval: time.Millisecond})
	r.worker.SetErrorHandler(func(*focus.TaskExecutionError) { failures.Add(1) })
	r.Start()
	defer r.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := r.Submit(ctx, focus.P1UserInput, "boom", func() (any, error) { panic("boom") })
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected the panic to be reported, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should name the panic, got %v", err)
	}

	// the worker survives and counts the failure
	if _, err := r.Submit(ctx, focus.P1UserInput, "after", func() (any, error) { return "ok", nil }); err != nil {
		t.Errorf("worker should keep running after a panic, got %v", err)
	}
	if failures.Load() != 1 {
		t.Errorf("Expected 1 task failure, got %d", failures.Load())
	}
}

func TestAbandonedCommandIsSkipped(t *testing.T) {
	exec := newTestExecutive(t)
	r := New(exec, Options{PollInterval: time.Millisecond})

	// nothing drains the queue yet, so the caller gives up first
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := r.Command(ctx, "where are my keys?"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}

	r.Start()
	defer r.Stop()
	deadline := time.Now().Add(time.Second)
	for r.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.Pending() != 0 {
		t.Fatal("queue was not drained")
	}

	// let the popped task finish
	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	r.Submit(waitCtx, focus.P4Exploration, "barrier", func() (any, error) { return nil, nil })

	if exec.Mode() != types.ModeAmbient {
		t.Errorf("abandoned find should not switch mode, got %s", exec.Mode())
	}
}

// Package runner serializes every side effect of the cube through the
// priority queue: user commands, periodic ticks and vision scans all run
// on the single focus worker, in priority order.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vthunder/cube/internal/executive"
	"github.com/vthunder/cube/internal/focus"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/types"
)

// Options tunes the queue, worker and ticker
type Options struct {
	QueueSize    int
	PollInterval time.Duration
	StopTimeout  time.Duration
	TickInterval time.Duration // <= 0 disables the ticker
	Metrics      *executive.Metrics
	OnTick       func(types.Status) // called on the worker after each tick
}

// Runner owns the queue, the worker and the ticker
type Runner struct {
	exec   *executive.Executive
	queue  *focus.Queue
	worker *focus.Worker
	opts   Options

	mu     sync.Mutex
	cancel context.CancelFunc
	ticker sync.WaitGroup
}

// New wires a runner around exec
func New(exec *executive.Executive, opts Options) *Runner {
	q := focus.NewQueue(opts.QueueSize)
	w := focus.NewWorker(q)
	if opts.PollInterval > 0 {
		w.SetPollInterval(opts.PollInterval)
	}
	if opts.StopTimeout > 0 {
		w.SetStopTimeout(opts.StopTimeout)
	}
	if opts.Metrics != nil {
		w.SetErrorHandler(opts.Metrics.ObserveTaskFailure)
		opts.Metrics.WatchQueue(q)
	}
	return &Runner{exec: exec, queue: q, worker: w, opts: opts}
}

// Start launches the worker and the ticker
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.worker.Start()
	if r.cancel != nil || r.opts.TickInterval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.ticker.Add(1)
	go r.tickLoop(ctx)
	logging.Info("runner", "Started (tick every %s)", r.opts.TickInterval)
}

// Stop halts the ticker and the worker. It reports false when a running
// task did not finish within the stop timeout.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		r.ticker.Wait()
	}
	return r.worker.Stop()
}

// Pending returns the number of queued tasks
func (r *Runner) Pending() int {
	return r.queue.Len()
}

func (r *Runner) tickLoop(ctx context.Context) {
	defer r.ticker.Done()

	t := time.NewTicker(r.opts.TickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.queue.Push(focus.P2DueTask, "tick", r.tick); err != nil {
				logging.Warn("runner", "tick dropped: %v", err)
			}
		}
	}
}

func (r *Runner) tick() error {
	status, err := r.exec.Tick(context.Background())
	if r.opts.OnTick != nil {
		r.opts.OnTick(status)
	}
	return err
}

// result carries a task's outcome back to the submitter
type result struct {
	value any
	err   error
}

// Submit queues fn at priority and waits for it to run. The wait ends
// early when ctx is done, and a task whose ctx is done by the time the
// worker reaches it is skipped. A panic in fn is reported to the caller
// and still fails the task on the worker.
func (r *Runner) Submit(ctx context.Context, priority focus.Priority, name string, fn func() (any, error)) (any, error) {
	ch := make(chan result, 1)
	err := r.queue.Push(priority, name, func() error {
		if err := ctx.Err(); err != nil {
			logging.Debug("runner", "Skipping %s: %v", name, err)
			return nil
		}
		defer func() {
			if p := recover(); p != nil {
				ch <- result{err: fmt.Errorf("%s panicked: %v", name, p)}
				panic(p)
			}
		}()
		v, err := fn()
		ch <- result{value: v, err: err}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue %s: %w", name, err)
	}

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Command runs a text command at user-input priority
func (r *Runner) Command(ctx context.Context, text string) (executive.Response, error) {
	v, err := r.Submit(ctx, focus.P1UserInput, "command", func() (any, error) {
		return r.exec.ProcessText(context.WithoutCancel(ctx), text)
	})
	resp, _ := v.(executive.Response)
	return resp, err
}

// Tick runs a tick now at due-task priority
func (r *Runner) Tick(ctx context.Context) (types.Status, error) {
	v, err := r.Submit(ctx, focus.P2DueTask, "tick", func() (any, error) {
		return r.exec.Tick(context.WithoutCancel(ctx))
	})
	status, _ := v.(types.Status)
	return status, err
}

// Detect runs a vision scan at exploration priority
func (r *Runner) Detect(ctx context.Context, imagePath, locationHint string) (executive.DetectResult, error) {
	v, err := r.Submit(ctx, focus.P4Exploration, "detect", func() (any, error) {
		return r.exec.DetectAndRemember(context.WithoutCancel(ctx), imagePath, locationHint)
	})
	res, _ := v.(executive.DetectResult)
	return res, err
}

// ClearLaser turns the laser off ahead of all other work
func (r *Runner) ClearLaser(ctx context.Context) error {
	_, err := r.Submit(ctx, focus.P0Critical, "laser_off", func() (any, error) {
		return nil, r.exec.ClearLaser()
	})
	return err
}

// IsQueueFull reports whether err came from a full queue
func IsQueueFull(err error) bool {
	return errors.Is(err, focus.ErrQueueFull)
}

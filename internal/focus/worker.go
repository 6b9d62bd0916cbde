package focus

import (
	"fmt"
	"sync"
	"time"

	"github.com/vthunder/cube/internal/logging"
)

const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultStopTimeout  = time.Second
)

// Worker drains a Queue on a single goroutine, one task at a time. Running
// tasks serially is what keeps hardware side effects from racing each other.
type Worker struct {
	queue *Queue

	// Configuration
	pollInterval time.Duration // wait between polls of an empty queue
	stopTimeout  time.Duration // how long Stop waits for the goroutine to exit
	onError      func(*TaskExecutionError)

	// Control
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{} // closed when the current loop goroutine returns
}

// NewWorker creates a stopped worker for the queue
func NewWorker(queue *Queue) *Worker {
	return &Worker{
		queue:        queue,
		pollInterval: DefaultPollInterval,
		stopTimeout:  DefaultStopTimeout,
	}
}

// SetPollInterval configures the empty-queue wait (takes effect on next Start)
func (w *Worker) SetPollInterval(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.pollInterval = d
	}
}

// SetStopTimeout configures the bounded join used by Stop
func (w *Worker) SetStopTimeout(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.stopTimeout = d
	}
}

// SetErrorHandler registers a hook called for every failed task
func (w *Worker) SetErrorHandler(fn func(*TaskExecutionError)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Start launches the worker goroutine. Calling Start on a running worker
// does nothing.
func (w *Worker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	if w.done != nil {
		select {
		case <-w.done:
		default:
			// A previous loop is still stuck in a task after a timed-out Stop.
			w.mu.Unlock()
			logging.Warn("worker", "previous loop still running a task, not starting a second one")
			return
		}
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	stop, done := w.stopChan, w.done
	poll, onError := w.pollInterval, w.onError
	w.mu.Unlock()

	go w.loop(stop, done, poll, onError)
	logging.Info("worker", "Started (poll=%v)", poll)
}

// Stop signals the worker to exit and waits up to the stop timeout. It
// returns false if a task was still running when the timeout expired; the
// task is not interrupted. Stop on a stopped worker returns true at once.
func (w *Worker) Stop() bool {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return true
	}
	close(w.stopChan)
	w.running = false
	done, timeout := w.done, w.stopTimeout
	w.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		logging.Info("worker", "Stopped")
		return true
	case <-timer.C:
		logging.Warn("worker", "stop timed out after %v with a task in flight", timeout)
		return false
	}
}

// Running reports whether the worker is in the Running state
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) loop(stop <-chan struct{}, done chan<- struct{}, poll time.Duration, onError func(*TaskExecutionError)) {
	defer close(done)

	timer := time.NewTimer(poll)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		task, ok := w.queue.Pop()
		if !ok {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(poll)
			select {
			case <-stop:
				return
			case <-timer.C:
			}
			continue
		}

		if err := execute(task); err != nil {
			logging.Warn("worker", "%v", err)
			if onError != nil {
				onError(err)
			}
		}
	}
}

// execute runs one task, turning errors and panics into TaskExecutionError
func execute(task *Task) (taskErr *TaskExecutionError) {
	defer func() {
		if r := recover(); r != nil {
			taskErr = &TaskExecutionError{
				Task:     task.Name,
				Priority: task.Priority,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()

	logging.Debug("worker", "Running %s (%s, queued %v ago)",
		task.Name, task.Priority, time.Since(task.EnqueuedAt).Round(time.Millisecond))

	if task.Action == nil {
		return nil
	}
	if err := task.Action(); err != nil {
		return &TaskExecutionError{Task: task.Name, Priority: task.Priority, Err: err}
	}
	return nil
}

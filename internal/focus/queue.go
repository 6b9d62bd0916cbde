package focus

import (
	"container/heap"
	"sync"
	"time"
)

// Queue is a thread-safe priority queue of pending tasks. Tasks pop in
// ascending priority; within a priority they pop in submission order.
type Queue struct {
	mu      sync.Mutex
	items   taskHeap
	nextSeq uint64
	maxSize int // 0 = unbounded
}

// NewQueue creates a task queue. maxSize <= 0 leaves it unbounded.
func NewQueue(maxSize int) *Queue {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Queue{maxSize: maxSize}
}

// Push enqueues an action. It fails with ErrQueueFull only when the queue
// was created with a bound and is at capacity.
func (q *Queue) Push(priority Priority, name string, action Action) error {
	task := &Task{
		Priority:   priority,
		EnqueuedAt: time.Now(),
		Name:       name,
		Action:     action,
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxSize > 0 && len(q.items) >= q.maxSize {
		return ErrQueueFull
	}
	task.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.items, task)
	return nil
}

// Pop removes and returns the most urgent task. It never blocks: ok is
// false when nothing is queued.
func (q *Queue) Pop() (task *Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(*Task), true
}

// Len returns the number of queued tasks
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// taskHeap implements heap.Interface ordered by (priority, seq)
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

package sim

import (
	"container/heap"
	"sync"
)

// TaskQueue is a thread-safe priority queue of timed tasks ordered by
// scheduled time. Ties are broken FIFO by an admission sequence number
// assigned under the queue lock, so runs that admit simultaneous tasks are
// reproducible. Admission may happen from any goroutine while a single
// consumer drains the queue.
type TaskQueue struct {
	mu    sync.Mutex
	seq   uint64
	tasks taskHeap
}

// NewTaskQueue creates an empty task queue.
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{tasks: make(taskHeap, 0)}
	heap.Init(&q.tasks)
	return q
}

// Admit adds a task to the queue, stamping its admission sequence.
func (q *TaskQueue) Admit(t *TimedTask) {
	q.mu.Lock()
	t.seq = q.seq
	q.seq++
	heap.Push(&q.tasks, t)
	q.mu.Unlock()
}

// PopDue removes and returns the earliest task if its scheduled time does
// not exceed limit. A limit of zero or less means unbounded. The boolean
// reports whether a task beyond the limit remains queued, which is how the
// run loop learns it should advance the clock to the target boundary.
func (q *TaskQueue) PopDue(limit int64) (*TimedTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	if limit > 0 && q.tasks[0].when > limit {
		return nil, true
	}
	return heap.Pop(&q.tasks).(*TimedTask), false
}

// Peek returns the earliest task without removing it, or nil when empty.
func (q *TaskQueue) Peek() *TimedTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	return q.tasks[0]
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	l := len(q.tasks)
	q.mu.Unlock()
	return l
}

// Empty reports whether no tasks are queued.
func (q *TaskQueue) Empty() bool {
	return q.Len() == 0
}

type taskHeap []*TimedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when < h[j].when
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*TimedTask))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

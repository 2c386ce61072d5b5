package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// RunHandle represents the eventual completion of one scheduler run.
// It resolves exactly once, when the run loop exits, and carries the error
// that aborted the run, if any.
type RunHandle struct {
	done chan struct{}
	err  error
	once sync.Once
}

func newRunHandle() *RunHandle {
	return &RunHandle{done: make(chan struct{})}
}

func (h *RunHandle) resolve(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

// Done returns a channel closed when the run has finished.
func (h *RunHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the run's error: nil until Done closes, and nil afterwards
// for a clean exit.
func (h *RunHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the run finishes or ctx is cancelled.
func (h *RunHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type runRequest struct {
	target int64
	handle *RunHandle
}

// Scheduler owns a virtual clock and a task queue and drains the queue in
// virtual-time order on a single dedicated worker goroutine. At most one run
// loop is active; tasks never execute concurrently, which keeps clock
// advancement and all state touched only from task actions race-free.
type Scheduler struct {
	clock *VirtualClock
	queue *TaskQueue

	runCh   chan runRequest
	stopReq atomic.Bool

	mu       sync.Mutex
	running  bool
	shutDown bool
}

// NewScheduler creates a scheduler with a fresh clock, an empty queue, and
// an idle worker.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		clock: NewVirtualClock(),
		queue: NewTaskQueue(),
		runCh: make(chan runRequest, 1),
	}
	go s.worker()
	return s
}

// Clock returns a read-only view of the scheduler's virtual clock.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Now returns the current virtual time.
func (s *Scheduler) Now() int64 {
	return s.clock.Now()
}

// QueueLen returns the number of admitted, not yet executed tasks.
func (s *Scheduler) QueueLen() int {
	return s.queue.Len()
}

// Running reports whether a run loop is currently active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	r := s.running
	s.mu.Unlock()
	return r
}

// ScheduleOnce admits a one-shot task due delay ticks from now.
func (s *Scheduler) ScheduleOnce(action Action, delay int64) error {
	if delay < 0 {
		return fmt.Errorf("negative delay %d: %w", delay, ErrInvalidArgument)
	}
	s.queue.Admit(newTimedTask(action, s.clock.Now()+delay, 0, 0))
	return nil
}

// ScheduleRepeating admits a task that fires at now+initialDelay and then
// every interval ticks, indefinitely.
func (s *Scheduler) ScheduleRepeating(action Action, initialDelay, interval int64) error {
	return s.ScheduleRepeatingBounded(action, initialDelay, interval, RepeatUnbounded)
}

// ScheduleRepeatingBounded admits a task that fires at now+initialDelay and
// then repeats every interval ticks for repeats additional firings, so it
// fires repeats+1 times in total.
func (s *Scheduler) ScheduleRepeatingBounded(action Action, initialDelay, interval, repeats int64) error {
	if initialDelay < 0 {
		return fmt.Errorf("negative initial delay %d: %w", initialDelay, ErrInvalidArgument)
	}
	if interval <= 0 {
		return fmt.Errorf("non-positive interval %d: %w", interval, ErrInvalidArgument)
	}
	if repeats < 0 {
		return fmt.Errorf("negative repeat count %d: %w", repeats, ErrInvalidArgument)
	}
	s.queue.Admit(newTimedTask(action, s.clock.Now()+initialDelay, interval, repeats))
	return nil
}

// SubmitNow admits a one-shot task due at the current virtual time. It is
// the "execute" entry point for ad hoc work items.
func (s *Scheduler) SubmitNow(action Action) error {
	return s.ScheduleOnce(action, 0)
}

// Run starts the run loop on the dedicated worker and returns a handle that
// resolves when the loop exits. A target of zero or less means run until the
// queue is exhausted; otherwise the loop stops once the clock reaches the
// target. An empty queue yields an already-resolved handle. Calling Run
// while a run is active fails with ErrAlreadyRunning.
func (s *Scheduler) Run(target int64) (*RunHandle, error) {
	s.mu.Lock()
	if s.shutDown {
		s.mu.Unlock()
		return nil, fmt.Errorf("scheduler is shut down: %w", ErrInvalidArgument)
	}
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	if s.queue.Empty() {
		s.mu.Unlock()
		h := newRunHandle()
		h.resolve(nil)
		return h, nil
	}
	s.running = true
	s.stopReq.Store(false)
	h := newRunHandle()
	// The buffer of one and the idle worker guarantee this never blocks.
	s.runCh <- runRequest{target: target, handle: h}
	s.mu.Unlock()
	return h, nil
}

// RunUntil is Run with an absolute target time.
func (s *Scheduler) RunUntil(target int64) (*RunHandle, error) {
	return s.Run(target)
}

// Stop requests the run loop to exit after the currently executing task
// finishes. Admitted tasks are preserved, so a later Run resumes draining
// where this one left off. Idempotent; harmless when nothing runs.
func (s *Scheduler) Stop() {
	s.stopReq.Store(true)
}

// Shutdown stops the run loop and permanently retires the worker. After
// Shutdown every Run fails; queued tasks are never executed again.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.shutDown {
		s.mu.Unlock()
		return
	}
	s.shutDown = true
	s.stopReq.Store(true)
	close(s.runCh)
	s.mu.Unlock()
}

func (s *Scheduler) worker() {
	for req := range s.runCh {
		err := s.drain(req.target)
		req.handle.resolve(err)
	}
}

// drain is the run loop. It pops tasks in virtual-time order, advances the
// clock to each task's scheduled time (never backward), executes the action,
// and re-admits repeating tasks only after their action has fully returned.
// When the next task lies beyond a positive target, the clock advances to
// the boundary and the loop exits without running it.
func (s *Scheduler) drain(target int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked at tick %d: %v", s.clock.Now(), r)
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for !s.stopReq.Load() && (target <= 0 || s.clock.Now() < target) {
		task, beyond := s.queue.PopDue(target)
		if task == nil {
			if beyond {
				s.clock.advance(target)
			}
			break
		}
		s.clock.advance(task.when)
		logrus.Debugf("[tick %07d] executing task, %d queued", s.clock.Now(), s.queue.Len())
		if err := task.action(); err != nil {
			return fmt.Errorf("task at tick %d: %w", s.clock.Now(), err)
		}
		if task.repeats > 0 && !s.stopReq.Load() {
			s.queue.Admit(task.next())
		}
	}
	return nil
}

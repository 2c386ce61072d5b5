package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop() error { return nil }

func TestTaskQueue_OrdersByScheduledTime(t *testing.T) {
	q := NewTaskQueue()
	q.Admit(newTimedTask(noop, 100, 0, 0))
	q.Admit(newTimedTask(noop, 50, 0, 0))
	q.Admit(newTimedTask(noop, 75, 0, 0))

	var times []int64
	for {
		task, _ := q.PopDue(0)
		if task == nil {
			break
		}
		times = append(times, task.ScheduledTime())
	}
	assert.Equal(t, []int64{50, 75, 100}, times)
	assert.True(t, q.Empty())
}

func TestTaskQueue_EqualTimesPopFIFO(t *testing.T) {
	q := NewTaskQueue()
	first := newTimedTask(noop, 50, 0, 0)
	second := newTimedTask(noop, 50, 0, 0)
	third := newTimedTask(noop, 50, 0, 0)
	q.Admit(first)
	q.Admit(second)
	q.Admit(third)

	a, _ := q.PopDue(0)
	b, _ := q.PopDue(0)
	c, _ := q.PopDue(0)
	assert.Same(t, first, a)
	assert.Same(t, second, b)
	assert.Same(t, third, c)
}

func TestTaskQueue_PopDueRespectsLimit(t *testing.T) {
	q := NewTaskQueue()
	q.Admit(newTimedTask(noop, 30, 0, 0))
	q.Admit(newTimedTask(noop, 90, 0, 0))

	task, beyond := q.PopDue(60)
	require.NotNil(t, task)
	assert.False(t, beyond)
	assert.Equal(t, int64(30), task.ScheduledTime())

	// The remaining task is past the limit: nothing pops, but the caller
	// learns work remains beyond the boundary.
	task, beyond = q.PopDue(60)
	assert.Nil(t, task)
	assert.True(t, beyond)
	assert.Equal(t, 1, q.Len())

	task, beyond = q.PopDue(0)
	require.NotNil(t, task)
	assert.False(t, beyond)
	assert.Equal(t, int64(90), task.ScheduledTime())
}

func TestTaskQueue_PeekDoesNotRemove(t *testing.T) {
	q := NewTaskQueue()
	assert.Nil(t, q.Peek())

	q.Admit(newTimedTask(noop, 10, 0, 0))
	require.NotNil(t, q.Peek())
	assert.Equal(t, 1, q.Len())
}

func TestTaskQueue_ConcurrentAdmission(t *testing.T) {
	q := NewTaskQueue()
	const admitters = 8
	const perAdmitter = 200

	var wg sync.WaitGroup
	for i := 0; i < admitters; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := 0; j < perAdmitter; j++ {
				q.Admit(newTimedTask(noop, base+int64(j), 0, 0))
			}
		}(int64(i * 1000))
	}
	wg.Wait()

	assert.Equal(t, admitters*perAdmitter, q.Len())
	prev := int64(-1)
	for {
		task, _ := q.PopDue(0)
		if task == nil {
			break
		}
		require.GreaterOrEqual(t, task.ScheduledTime(), prev)
		prev = task.ScheduledTime()
	}
}

package sim

import "math"

// RepeatUnbounded makes a repeating task fire effectively forever.
const RepeatUnbounded int64 = math.MaxInt64

// Action is one schedulable unit of work. A non-nil error aborts the run
// that executed it and surfaces on the run's completion handle.
type Action func() error

// TimedTask binds an action to a target virtual time, with optional repeat
// semantics. Once admitted to the task queue an entry is immutable;
// rescheduling a repeating task produces a fresh copy via next().
type TimedTask struct {
	action   Action
	when     int64 // target virtual time in ticks
	interval int64 // 0 = one-shot
	repeats  int64 // remaining additional firings after this one
	seq      uint64
}

func newTimedTask(action Action, when, interval, repeats int64) *TimedTask {
	return &TimedTask{
		action:   action,
		when:     when,
		interval: interval,
		repeats:  repeats,
	}
}

// ScheduledTime returns the virtual time this task is due.
func (t *TimedTask) ScheduledTime() int64 {
	return t.when
}

// next returns the task's successor: same action, one interval later,
// repeat budget decremented. The copy has no admission sequence until the
// queue assigns one at admission.
func (t *TimedTask) next() *TimedTask {
	return &TimedTask{
		action:   t.action,
		when:     t.when + t.interval,
		interval: t.interval,
		repeats:  t.repeats - 1,
	}
}

package sim

import "sync"

// Clock gives collaborators read-only access to simulation time.
// Time is measured in ticks (logical milliseconds) and is advanced only by
// the scheduler's run loop; external readers always get a snapshot.
type Clock interface {
	Now() int64
}

// VirtualClock holds the current logical time of a simulation.
// It is created together with a Scheduler and lives for its lifetime.
type VirtualClock struct {
	mu  sync.RWMutex
	now int64
}

// NewVirtualClock creates a clock at tick 0.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{}
}

// Now returns the current tick.
func (c *VirtualClock) Now() int64 {
	c.mu.RLock()
	t := c.now
	c.mu.RUnlock()
	return t
}

// advance moves the clock forward to t. The clock never moves backward;
// advancing to a tick at or before the current one is a no-op.
// Called only from the scheduler's run loop.
func (c *VirtualClock) advance(t int64) {
	c.mu.Lock()
	if t > c.now {
		c.now = t
	}
	c.mu.Unlock()
}

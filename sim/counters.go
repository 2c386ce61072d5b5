package sim

import "sync"

// CounterSet tracks per-destination hit counts for the most recent traffic
// firing. It is owned by the traffic driver, which resets it at the start
// of each firing; reads during a run are best-effort snapshots.
type CounterSet struct {
	mu   sync.Mutex
	hits map[string]int
}

// NewCounterSet creates an empty counter set.
func NewCounterSet() *CounterSet {
	return &CounterSet{hits: make(map[string]int)}
}

// Reset clears all counters.
func (c *CounterSet) Reset() {
	c.mu.Lock()
	c.hits = make(map[string]int)
	c.mu.Unlock()
}

// Incr increments the counter for a destination.
func (c *CounterSet) Incr(destination string) {
	c.mu.Lock()
	c.hits[destination]++
	c.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (c *CounterSet) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.hits))
	for dest, n := range c.hits {
		out[dest] = n
	}
	return out
}

// Total returns the sum of all counters.
func (c *CounterSet) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.hits {
		total += n
	}
	return total
}

// Percent returns a destination's share of the total in [0,1]: 0.0 when the
// destination is unseen or the total is zero.
func (c *CounterSet) Percent(destination string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.hits[destination]
	if !ok {
		return 0.0
	}
	total := 0
	for _, h := range c.hits {
		total += h
	}
	if total == 0 {
		return 0.0
	}
	return float64(n) / float64(total)
}

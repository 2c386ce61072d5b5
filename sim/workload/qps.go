package workload

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrNoData signals that a generator has no value for the current request:
// an exhausted QPS sequence, or a destination with no configured delay.
// The traffic driver treats it as an expected end-of-input condition, not a
// failure.
var ErrNoData = errors.New("generator has no data")

// QPSGenerator supplies the number of queries to issue per traffic interval.
type QPSGenerator interface {
	// NextQPS returns the query count for the next interval, or ErrNoData
	// when the generator is exhausted.
	NextQPS() (int, error)
}

// ConstantQPS returns the same count every interval.
type ConstantQPS struct {
	Count int
}

func (g *ConstantQPS) NextQPS() (int, error) {
	if g.Count < 0 {
		return 0, fmt.Errorf("negative qps %d: %w", g.Count, ErrNoData)
	}
	return g.Count, nil
}

// SequenceQPS replays a fixed list of counts, then reports exhaustion.
// Exhaustion is how scenario tests bound the number of traffic firings.
type SequenceQPS struct {
	Counts []int
	next   int
}

func (g *SequenceQPS) NextQPS() (int, error) {
	if g.next >= len(g.Counts) {
		return 0, fmt.Errorf("qps sequence exhausted after %d intervals: %w", g.next, ErrNoData)
	}
	n := g.Counts[g.next]
	g.next++
	return n, nil
}

// PoissonQPS draws per-interval counts from a Poisson distribution with the
// given mean, using Knuth's multiplication method. Deterministic for a
// seeded rng.
type PoissonQPS struct {
	Mean float64
	Rng  *rand.Rand
}

func (g *PoissonQPS) NextQPS() (int, error) {
	if g.Mean <= 0 {
		return 0, fmt.Errorf("non-positive poisson mean %v: %w", g.Mean, ErrNoData)
	}
	l := math.Exp(-g.Mean)
	k := 0
	p := 1.0
	for {
		p *= g.Rng.Float64()
		if p <= l {
			return k, nil
		}
		k++
	}
}

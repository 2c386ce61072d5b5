package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// DelayGenerator supplies the simulated response delay for a destination,
// in ticks.
type DelayGenerator interface {
	// NextDelay returns the delay for the given destination, or ErrNoData
	// when none is configured.
	NextDelay(destination string) (int64, error)
}

// StaticDelay maps each destination to a fixed delay.
type StaticDelay struct {
	Delays map[string]int64
}

func (g *StaticDelay) NextDelay(destination string) (int64, error) {
	d, ok := g.Delays[destination]
	if !ok {
		return 0, fmt.Errorf("no delay configured for %s: %w", destination, ErrNoData)
	}
	return d, nil
}

// SequenceDelay replays a per-destination list of delays, holding the last
// value once the list runs out. Useful for scenarios where a destination
// degrades or recovers over successive intervals.
type SequenceDelay struct {
	Delays map[string][]int64
	next   map[string]int
}

func (g *SequenceDelay) NextDelay(destination string) (int64, error) {
	seq, ok := g.Delays[destination]
	if !ok || len(seq) == 0 {
		return 0, fmt.Errorf("no delay sequence for %s: %w", destination, ErrNoData)
	}
	if g.next == nil {
		g.next = make(map[string]int)
	}
	i := g.next[destination]
	if i >= len(seq) {
		return seq[len(seq)-1], nil
	}
	g.next[destination] = i + 1
	return seq[i], nil
}

// GaussianDelay draws clamped Gaussian delays around a per-destination mean.
type GaussianDelay struct {
	Means  map[string]float64
	StdDev float64
	Min    int64
	Max    int64
	Rng    *rand.Rand
}

func (g *GaussianDelay) NextDelay(destination string) (int64, error) {
	mean, ok := g.Means[destination]
	if !ok {
		return 0, fmt.Errorf("no delay mean for %s: %w", destination, ErrNoData)
	}
	val := g.Rng.NormFloat64()*g.StdDev + mean
	clamped := math.Min(float64(g.Max), math.Max(float64(g.Min), val))
	d := int64(math.Round(clamped))
	if d < 0 {
		d = 0
	}
	return d, nil
}

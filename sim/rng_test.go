package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_SameKeySameStream(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1234))
	b := NewPartitionedRNG(NewSimulationKey(1234))

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.ForSubsystem(SubsystemQPS).Int63(), b.ForSubsystem(SubsystemQPS).Int63())
	}
}

func TestPartitionedRNG_SubsystemsAreIsolated(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1234))
	b := NewPartitionedRNG(NewSimulationKey(1234))

	// Extra draws on one subsystem must not disturb another.
	for i := 0; i < 50; i++ {
		a.ForSubsystem(SubsystemDelay).Float64()
	}
	assert.Equal(t, a.ForSubsystem(SubsystemQPS).Int63(), b.ForSubsystem(SubsystemQPS).Int63())
}

func TestPartitionedRNG_DifferentKeysDiverge(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1))
	b := NewPartitionedRNG(NewSimulationKey(2))
	assert.NotEqual(t, a.ForSubsystem(SubsystemRing).Int63(), b.ForSubsystem(SubsystemRing).Int63())
}

func TestPartitionedRNG_CachesInstances(t *testing.T) {
	p := NewPartitionedRNG(NewSimulationKey(42))
	assert.Same(t, p.ForSubsystem(SubsystemQPS), p.ForSubsystem(SubsystemQPS))
	assert.Equal(t, NewSimulationKey(42), p.Key())
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routing-sim/routing-sim/sim/workload"
)

func TestTransport_CompletionRunsAfterDelay(t *testing.T) {
	s := NewScheduler()
	defer s.Shutdown()
	tr := NewSimulatedTransport(s, nil)

	var got Response
	require.NoError(t, tr.SendDelayed("http://host1:8080", "sim://svc/0", 30, func(r Response) {
		got = r
	}))

	runAndWait(t, s, 0)

	assert.Equal(t, int64(30), got.CompletedAt)
	assert.Equal(t, "http://host1:8080", got.Destination)
	assert.Equal(t, "sim://svc/0", got.Path)
}

func TestTransport_SendUsesDelayGenerator(t *testing.T) {
	s := NewScheduler()
	defer s.Shutdown()
	tr := NewSimulatedTransport(s, &workload.StaticDelay{
		Delays: map[string]int64{"http://host1:8080": 25},
	})

	var completedAt int64 = -1
	require.NoError(t, tr.Send("http://host1:8080", "sim://svc/0", func(r Response) {
		completedAt = r.CompletedAt
	}))

	runAndWait(t, s, 0)
	assert.Equal(t, int64(25), completedAt)
}

func TestTransport_MissingDelayFailsWithoutScheduling(t *testing.T) {
	s := NewScheduler()
	defer s.Shutdown()
	tr := NewSimulatedTransport(s, &workload.StaticDelay{Delays: map[string]int64{}})

	err := tr.Send("http://unknown:1", "sim://svc/0", nil)
	assert.ErrorIs(t, err, ErrDelayUnavailable)
	assert.Equal(t, 0, s.QueueLen())
}

func TestTransport_NilGeneratorFailsSend(t *testing.T) {
	s := NewScheduler()
	defer s.Shutdown()
	tr := NewSimulatedTransport(s, nil)

	err := tr.Send("http://host1:8080", "sim://svc/0", nil)
	assert.ErrorIs(t, err, ErrDelayUnavailable)
}

func TestTransport_NegativeDelayRejected(t *testing.T) {
	s := NewScheduler()
	defer s.Shutdown()
	tr := NewSimulatedTransport(s, nil)

	err := tr.SendDelayed("http://host1:8080", "sim://svc/0", -1, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, s.QueueLen())
}

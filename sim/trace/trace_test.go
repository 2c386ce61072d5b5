package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_RecordsInOrder(t *testing.T) {
	tr := New()
	tr.RecordInterval(IntervalRecord{Tick: 10, Requests: 5, Hits: map[string]int{"http://h1:80": 5}})
	tr.RecordInterval(IntervalRecord{Tick: 30, Requests: 3, Hits: map[string]int{"http://h2:80": 3}})

	records := tr.Records()
	require.Len(t, records, 2)
	assert.Equal(t, int64(10), records[0].Tick)
	assert.Equal(t, int64(30), records[1].Tick)
}

func TestTrace_RecordsReturnsACopy(t *testing.T) {
	tr := New()
	tr.RecordInterval(IntervalRecord{Tick: 10})

	records := tr.Records()
	records[0].Tick = 999
	assert.Equal(t, int64(10), tr.Records()[0].Tick)
}

func TestTrace_Summarize(t *testing.T) {
	tr := New()
	tr.RecordInterval(IntervalRecord{Tick: 10, Requests: 10, Hits: map[string]int{
		"http://h1:80": 6, "http://h2:80": 4,
	}})
	tr.RecordInterval(IntervalRecord{Tick: 30, Requests: 10, Hits: map[string]int{
		"http://h1:80": 9, "http://h2:80": 1,
	}})

	s := tr.Summarize()
	assert.Equal(t, 2, s.Firings)
	assert.Equal(t, 20, s.TotalRequests)
	assert.InDelta(t, 0.75, s.Share["http://h1:80"], 1e-9)
	assert.InDelta(t, 0.25, s.Share["http://h2:80"], 1e-9)
}

func TestTrace_SummarizeEmpty(t *testing.T) {
	s := New().Summarize()
	assert.Equal(t, 0, s.Firings)
	assert.Equal(t, 0, s.TotalRequests)
	assert.Empty(t, s.Share)
}

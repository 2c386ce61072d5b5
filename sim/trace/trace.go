// Package trace collects per-firing observations of a simulation run and
// optionally persists them to SQLite for offline analysis.
package trace

import "sync"

// IntervalRecord captures one traffic firing: when it ran, how many queries
// it issued, and how the hits spread across destinations.
type IntervalRecord struct {
	Tick     int64
	Requests int
	Hits     map[string]int
}

// Summary aggregates a whole run.
type Summary struct {
	Firings       int
	TotalRequests int
	Share         map[string]float64 // destination → fraction of all hits
}

// Trace is the in-memory collection of interval records.
type Trace struct {
	mu      sync.Mutex
	records []IntervalRecord
}

// New creates an empty trace.
func New() *Trace {
	return &Trace{records: make([]IntervalRecord, 0)}
}

// RecordInterval appends one firing's record.
func (t *Trace) RecordInterval(rec IntervalRecord) {
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

// Records returns a copy of the recorded intervals in firing order.
func (t *Trace) Records() []IntervalRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]IntervalRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Summarize computes run totals and each destination's share of all hits.
func (t *Trace) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{Firings: len(t.records), Share: make(map[string]float64)}
	totals := make(map[string]int)
	totalHits := 0
	for _, rec := range t.records {
		s.TotalRequests += rec.Requests
		for dest, n := range rec.Hits {
			totals[dest] += n
			totalHits += n
		}
	}
	if totalHits == 0 {
		return s
	}
	for dest, n := range totals {
		s.Share[dest] = float64(n) / float64(totalHits)
	}
	return s
}

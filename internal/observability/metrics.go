package observability

import "sync"

// Metrics provides basic in-memory counters over dispatched events,
// lifecycle transitions and error codes.
type Metrics struct {
	mu          sync.Mutex
	events      map[string]int64
	transitions map[string]int64
	errors      map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		events:      make(map[string]int64),
		transitions: make(map[string]int64),
		errors:      make(map[string]int64),
	}
}

// RecordEvent counts one dispatched platform event by kind and identifier.
func (m *Metrics) RecordEvent(kind, identifier string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[kind+"|"+identifier]++
}

// RecordTransition counts one completed lifecycle transition.
func (m *Metrics) RecordTransition(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[name]++
}

// RecordError counts one failure by domain error code.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[code]++
}

// Snapshot copies the current counters for the diagnostics surface.
func (m *Metrics) Snapshot() (events, transitions, errors map[string]int64) {
	if m == nil {
		return nil, nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounters(m.events), copyCounters(m.transitions), copyCounters(m.errors)
}

func copyCounters(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

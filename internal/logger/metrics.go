package logger

import (
	"sync"
	"time"
)

// maxTimingSamples bounds memory for long-running watchers.
const maxTimingSamples = 500

// Metrics tracks operational metrics including counters, gauges, and timings.
// All operations are thread-safe.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

var defaultMetrics = NewMetrics()

// NewMetrics creates a new metrics tracker with empty counters, gauges, and timings.
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

// DefaultMetrics returns the package-level metrics tracker.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}

// IncrCounter increments a counter by 1.
func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// Counter returns the current value of a counter.
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// SetGauge sets a gauge to the specified value, overwriting any previous value.
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTiming records a duration measurement. Only the most recent
// maxTimingSamples measurements per name are kept.
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	samples := append(m.timings[name], duration)
	if len(samples) > maxTimingSamples {
		samples = samples[len(samples)-maxTimingSamples:]
	}
	m.timings[name] = samples
}

// GetSnapshot returns a deep copy of all metrics as a map containing:
//   - "counters": map of counter names to values
//   - "gauges": map of gauge names to values
//   - "timings": map of timing names to statistics (count, total, average, min, max)
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}

	timings := make(map[string]map[string]interface{})
	for name, durations := range m.timings {
		if len(durations) == 0 {
			continue
		}

		var total time.Duration
		lo, hi := durations[0], durations[0]
		for _, d := range durations {
			total += d
			if d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
		}

		timings[name] = map[string]interface{}{
			"count":   len(durations),
			"total":   total.String(),
			"average": (total / time.Duration(len(durations))).String(),
			"min":     lo.String(),
			"max":     hi.String(),
		}
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

// IncrCounter increments a counter on the default metrics tracker.
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// SetGauge sets a gauge on the default metrics tracker.
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker.
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// GetMetricsSnapshot returns a snapshot of all metrics from the default tracker.
func GetMetricsSnapshot() map[string]interface{} {
	return defaultMetrics.GetSnapshot()
}

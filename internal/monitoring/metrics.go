// Package monitoring collects the counters and timings reported by the affix
// processor.
package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metric names reported by the processor.
const (
	MetricDocuments   = "affix.documents"
	MetricFields      = "affix.fields"
	MetricFieldErrors = "affix.field_errors"
	MetricDuration    = "affix.duration"
)

// MetricsCollector defines the interface for collecting and reporting metrics
type MetricsCollector interface {
	IncrementCounter(name string, tags map[string]string)
	IncrementCounterBy(name string, value int64, tags map[string]string)
	RecordTiming(name string, duration time.Duration, tags map[string]string)

	// Flush any buffered metrics
	Flush() error
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) IncrementCounter(name string, tags map[string]string)                {}
func (n *NoOpMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {}
func (n *NoOpMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
}
func (n *NoOpMetricsCollector) Flush() error { return nil }

// InMemoryMetricsCollector keeps every metric in memory. It is meant for
// tests and for the command line tool.
type InMemoryMetricsCollector struct {
	mu       sync.RWMutex
	counters map[string]*int64
	timings  map[string][]time.Duration
}

// NewInMemoryMetricsCollector creates a new in-memory metrics collector
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		counters: make(map[string]*int64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetricsCollector) IncrementCounter(name string, tags map[string]string) {
	m.IncrementCounterBy(name, 1, tags)
}

func (m *InMemoryMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	counter, exists := m.counters[key]
	if !exists {
		counter = new(int64)
		m.counters[key] = counter
	}
	m.mu.Unlock()
	atomic.AddInt64(counter, value)
}

func (m *InMemoryMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	key := keyWithTags(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) Flush() error {
	return nil
}

// GetCounter returns the value of a counter
func (m *InMemoryMetricsCollector) GetCounter(name string, tags map[string]string) int64 {
	m.mu.RLock()
	counter, exists := m.counters[keyWithTags(name, tags)]
	m.mu.RUnlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(counter)
}

// GetTimings returns a copy of the recorded timings
func (m *InMemoryMetricsCollector) GetTimings(name string, tags map[string]string) []time.Duration {
	key := keyWithTags(name, tags)
	m.mu.RLock()
	defer m.mu.RUnlock()
	timings := make([]time.Duration, len(m.timings[key]))
	copy(timings, m.timings[key])
	return timings
}

// Reset clears all metrics
func (m *InMemoryMetricsCollector) Reset() {
	m.mu.Lock()
	m.counters = make(map[string]*int64)
	m.timings = make(map[string][]time.Duration)
	m.mu.Unlock()
}

// keyWithTags builds name,k1=v1,k2=v2 with the tags sorted by key.
func keyWithTags(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := name
	for _, k := range keys {
		result += "," + k + "=" + tags[k]
	}
	return result
}

package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/staticfifo/metric"
)

const (
	metricsNamespace = "staticfifo"
	metricsSubsystem = "buffer"
)

// bufferMetrics holds Prometheus metrics for buffer operations.
type bufferMetrics struct {
	// Counters count items, so one WriteBatch of ten adds ten writes
	writes    prometheus.Counter
	reads     prometheus.Counter
	peeks     prometheus.Counter
	overflows prometheus.Counter
	drops     prometheus.Counter

	// Gauge metrics - updated on operations
	size        prometheus.Gauge
	utilization prometheus.Gauge
}

func newCounter(prefix, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   metricsSubsystem,
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

func newGauge(prefix, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Subsystem:   metricsSubsystem,
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

// newBufferMetrics creates and registers buffer metrics with the provided registry.
// On a failed registration the metrics this call registered are removed again.
func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		writes:      newCounter(prefix, "writes_total", "Total number of items written to the buffer"),
		reads:       newCounter(prefix, "reads_total", "Total number of items read from the buffer"),
		peeks:       newCounter(prefix, "peeks_total", "Total number of buffer peek operations"),
		overflows:   newCounter(prefix, "overflows_total", "Total number of items that found no room in the buffer"),
		drops:       newCounter(prefix, "drops_total", "Total number of items dropped due to overflow"),
		size:        newGauge(prefix, "size", "Current number of items in buffer"),
		utilization: newGauge(prefix, "utilization", "Buffer utilization as a fraction (0.0 to 1.0)"),
	}

	collectors := []struct {
		name    string
		counter prometheus.Counter
		gauge   prometheus.Gauge
	}{
		{name: "buffer_writes", counter: m.writes},
		{name: "buffer_reads", counter: m.reads},
		{name: "buffer_peeks", counter: m.peeks},
		{name: "buffer_overflows", counter: m.overflows},
		{name: "buffer_drops", counter: m.drops},
		{name: "buffer_size", gauge: m.size},
		{name: "buffer_utilization", gauge: m.utilization},
	}

	for i, c := range collectors {
		var err error
		if c.counter != nil {
			err = registry.RegisterCounter(prefix, c.name, c.counter)
		} else {
			err = registry.RegisterGauge(prefix, c.name, c.gauge)
		}
		if err != nil {
			for _, done := range collectors[:i] {
				registry.Unregister(prefix, done.name)
			}
			return nil, err
		}
	}

	return m, nil
}

// recordWrites adds n written items and updates size/utilization.
func (m *bufferMetrics) recordWrites(n, size, capacity int) {
	m.writes.Add(float64(n))
	m.updateSize(size, capacity)
}

// recordReads adds n read items and updates size/utilization.
func (m *bufferMetrics) recordReads(n, size, capacity int) {
	m.reads.Add(float64(n))
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordPeek() {
	m.peeks.Inc()
}

func (m *bufferMetrics) recordOverflows(n int) {
	m.overflows.Add(float64(n))
}

func (m *bufferMetrics) recordDrops(n int) {
	m.drops.Add(float64(n))
}

// updateSize sets the current buffer size and utilization.
func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}

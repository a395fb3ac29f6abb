// Package metric provides a Prometheus-backed metrics registry for the buffer
// package and the fifoplay command.
//
// # Overview
//
// MetricsRegistry wraps a private prometheus.Registry (never the global default
// registry) and tracks what each component registered under a
// "component.metric" key. Registering the same key twice is reported as an invalid
// error wrapping ErrMetricConflict instead of panicking, as is a conflict reported
// by Prometheus itself.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//
//	buf, err := buffer.NewCircularBuffer[int64](1024,
//		buffer.WithMetrics[int64](registry, "ingest"),
//	)
//
//	samples, err := registry.Snapshot()
//	for _, s := range samples {
//		fmt.Println(s.Name, s.Labels, s.Value)
//	}
//
// Go runtime and process collectors are opt-in:
//
//	registry := metric.NewMetricsRegistry(metric.WithRuntimeCollectors())
//
// The underlying registry is available through PrometheusRegistry for callers that
// want to expose it over HTTP with promhttp; this package does not run a server.
//
// # Lifecycle
//
// Unregister removes one metric; UnregisterComponent removes everything a component
// registered, which lets a buffer name be reused after the buffer is discarded.
//
// # Thread Safety
//
// All registry methods are safe for concurrent use.
package metric

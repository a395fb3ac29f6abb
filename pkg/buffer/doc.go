// Package buffer provides generic circular buffers with configurable overflow policies,
// built-in statistics tracking, and optional Prometheus metrics integration.
//
// # Overview
//
// A buffer is a fifo.RingBuffer with policy and observability around it. The ring
// does the index arithmetic; this package decides what happens when it is full,
// reports what was lost, and keeps counts.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[int](1000)
//	if err != nil {
//		return err
//	}
//
//	// Write data
//	err = buf.Write(42)
//
//	// Read data
//	value, ok := buf.Read()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[[]byte](5000,
//		buffer.WithOverflowPolicy[[]byte](buffer.DropNewest),
//		buffer.WithMetrics[[]byte](registry, "network_input"),
//	)
//
// # Overflow Policies
//
//   - DropOldest: the oldest items are overwritten to make room (default)
//   - DropNewest: new items are declined while the buffer is full
//
// DropNewest declines a WriteBatch whole when it does not fit, so a batch is
// either stored entirely or not at all. DropOldest always stores the newest
// Capacity() items of a batch. Neither case is an error; the drop callback sees
// every item that was lost:
//
//	buf, _ := buffer.NewCircularBuffer[*Event](100,
//		buffer.WithOverflowPolicy[*Event](buffer.DropNewest),
//		buffer.WithDropCallback[*Event](func(e *Event) {
//			logger.Warn("event dropped", "id", e.ID)
//		}),
//	)
//
// Drop and Clear also hand discarded items to the callback.
//
// # Observability
//
// Statistics are always on and available via Stats(). Counters count items, not
// calls. Prometheus metrics are optional, enabled via WithMetrics, and carry the
// prefix as a "component" label:
//
//	staticfifo_buffer_writes_total{component="network_input"}
//	staticfifo_buffer_drops_total{component="network_input"}
//	staticfifo_buffer_utilization{component="network_input"}
//
// # Lifecycle
//
// Close stops the buffer accepting writes; Write and WriteBatch then return an
// invalid error wrapping errors.ErrBufferClosed. Items already buffered can still
// be read, so a consumer can drain after the producer side is shut.
//
// # Thread Safety
//
// Buffers are not safe for concurrent use. Give each buffer a single owner, or
// guard it with a mutex. Statistics may be read from any goroutine.
package buffer

// Package staticfifo provides a fixed-capacity ring buffer and the layers built
// on top of it.
//
// # Philosophy
//
// The ring itself is a plain data structure: it allocates once, never grows, and
// knows nothing about goroutines, metrics, or logging. Everything else is layered
// on top by callers that need it.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│            cmd/fifoplay             │  Scenario replay CLI
//	│   (load, replay, report)            │
//	└─────────────────────────────────────┘
//	        ↓ uses                 ↓ uses
//	┌──────────────────┐  ┌──────────────────┐
//	│   pkg/buffer     │  │   pkg/worker     │  Overflow policies, stats,
//	│ (policies, stats)│  │ (locked queue)   │  metrics, worker pool
//	└──────────────────┘  └──────────────────┘
//	        ↓ wraps                ↓ wraps
//	┌─────────────────────────────────────┐
//	│             pkg/fifo                │  RingBuffer[T]: push, pop,
//	│   (fixed capacity, single owner)    │  bulk copy, index, iterate
//	└─────────────────────────────────────┘
//
// Supporting packages:
//
//   - config: YAML/JSON scenario files for fifoplay
//   - errors: transient/invalid/fatal error classification
//   - metric: private Prometheus registry shared by buffers and pools
//
// # Quick Start
//
//	rb := fifo.New[int](4)
//	rb.Push([]int{1, 2, 3}, false)
//	v, _ := rb.Pop() // 1
//
// Replay a scenario:
//
//	fifoplay -config=scenario.yaml -output=json
//
// # Thread Safety
//
// fifo.RingBuffer and buffer.Buffer are single-owner. Share them across
// goroutines only behind your own lock, the way worker.Pool does.
package staticfifo

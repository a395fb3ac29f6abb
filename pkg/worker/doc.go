// Package worker provides a generic, thread-safe worker pool for concurrent task processing.
//
// # Overview
//
// A Pool runs a fixed number of goroutines over a bounded queue. The queue is a
// fifo.RingBuffer guarded by a mutex, with a sync.Cond to park idle workers; the
// ring itself knows nothing about goroutines.
//
//	pool := worker.NewPool[Job](
//	    4,   // workers
//	    100, // queue holds 100 jobs
//	    func(ctx context.Context, job Job) error {
//	        return job.Run(ctx)
//	    },
//	)
//
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	for _, job := range jobs {
//	    if err := pool.Submit(job); errors.Is(err, worker.ErrQueueFull) {
//	        // back off or reject
//	    }
//	}
//	if err := pool.Stop(10 * time.Second); err != nil {
//	    return err
//	}
//
// # Semantics
//
// Submit never blocks: a full queue returns ErrQueueFull and counts a drop.
// Items are handed to workers in submission order.
//
// Stop stops accepting work, lets the workers drain what is queued, and waits up
// to the timeout for them to exit. Cancelling the Start context instead makes
// workers exit after their current item and abandons the rest of the queue.
//
// # Observability
//
// Stats are always tracked with atomics. WithMetricsRegistry additionally
// exports them as Prometheus metrics with a "pool" label:
//
//	staticfifo_worker_queue_depth{pool="replay"}
//	staticfifo_worker_submitted_total{pool="replay"}
//	staticfifo_worker_processed_total{pool="replay"}
//	staticfifo_worker_failed_total{pool="replay"}
//	staticfifo_worker_dropped_total{pool="replay"}
package worker

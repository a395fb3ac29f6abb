package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/staticfifo/metric"
	"github.com/c360/staticfifo/pkg/fifo"
)

// Sentinel errors for worker pool operations
var (
	ErrPoolNotStarted     = errors.New("worker pool not started")
	ErrPoolStopped        = errors.New("worker pool stopped")
	ErrPoolAlreadyStarted = errors.New("worker pool already started")
	ErrQueueFull          = errors.New("worker pool queue full")
	ErrNilProcessor       = errors.New("processor function cannot be nil")
	ErrStopTimeout        = errors.New("timeout waiting for workers to stop")
)

// Pool runs a fixed number of workers over a bounded FIFO queue of work items.
type Pool[T any] struct {
	workers   int
	processor func(context.Context, T) error
	logger    *slog.Logger

	// queue and lifecycle flags are guarded by mu; workers wait on cond
	mu       sync.Mutex
	cond     *sync.Cond
	queue    *fifo.RingBuffer[T]
	started  bool
	stopping bool
	stopped  bool

	wg         sync.WaitGroup
	releaseCtx func() bool

	// Statistics (atomic)
	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	metrics         *poolMetrics
	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
}

// Option represents a configuration option for the worker pool
type Option[T any] func(*Pool[T])

// WithMetricsRegistry exports pool metrics labelled with the given pool name.
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// WithLogger sets the logger for lifecycle and processing failures.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a new generic worker pool with optional configuration
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error, opts ...Option[T]) *Pool[T] {
	if workers <= 0 {
		workers = 10 // Default worker count
	}
	if queueSize <= 0 {
		queueSize = 1000 // Default queue size
	}
	if processor == nil {
		panic(ErrNilProcessor)
	}

	pool := &Pool[T]{
		workers:   workers,
		processor: processor,
		logger:    slog.Default(),
		queue:     fifo.New[T](queueSize),
	}
	pool.cond = sync.NewCond(&pool.mu)

	// Apply options
	for _, opt := range opts {
		if opt != nil {
			opt(pool)
		}
	}

	// Metrics are best effort: a pool without them still runs
	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		m, err := newPoolMetrics(pool.metricsRegistry, pool.metricsPrefix)
		if err != nil {
			pool.logger.Warn("worker pool metrics disabled", "pool", pool.metricsPrefix, "error", err)
		}
		pool.metrics = m
	}

	return pool
}

// Submit queues work without blocking. Returns ErrQueueFull if the queue has no room.
func (p *Pool[T]) Submit(work T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopping {
		return ErrPoolStopped
	}

	if !p.queue.PushOne(work, false) {
		p.dropped.Add(1)
		if p.metrics != nil {
			p.metrics.dropped.Inc()
		}
		return ErrQueueFull
	}

	p.submitted.Add(1)
	if p.metrics != nil {
		p.metrics.submitted.Inc()
		p.metrics.setDepth(p.queue.Count(), p.queue.Cap())
	}
	p.cond.Signal()
	return nil
}

// Start starts the workers. Cancelling ctx makes them exit after their current
// item; queued items are then abandoned.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	// wake idle workers so they notice cancellation
	p.releaseCtx = context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})

	p.started = true
	return nil
}

// Stop refuses further submissions and waits up to timeout for the workers to
// drain the queue.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopping = true
	p.cond.Broadcast()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		p.releaseCtx()
		return nil
	case <-timer.C:
		// Timeout - workers may be stuck. They still exit once ctx is done, but
		// the pool no longer wakes them for it.
		p.releaseCtx()
		return ErrStopTimeout
	}
}

// Stats returns current pool statistics
func (p *Pool[T]) Stats() PoolStats {
	p.mu.Lock()
	depth, size := p.queue.Count(), p.queue.Cap()
	p.mu.Unlock()

	return PoolStats{
		Workers:    p.workers,
		QueueSize:  size,
		QueueDepth: depth,
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
	}
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
}

// next blocks until there is work, the pool is stopping with an empty queue,
// or ctx is done. ok is false when the worker should exit.
func (p *Pool[T]) next(ctx context.Context) (work T, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.IsEmpty() && !p.stopping && ctx.Err() == nil {
		p.cond.Wait()
	}
	if ctx.Err() != nil {
		return work, false
	}

	work, ok = p.queue.Pop()
	if ok && p.metrics != nil {
		p.metrics.setDepth(p.queue.Count(), p.queue.Cap())
	}
	return work, ok
}

// worker processes work items from the queue
func (p *Pool[T]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		work, ok := p.next(ctx)
		if !ok {
			return
		}

		err := p.processor(ctx, work)

		p.processed.Add(1)
		if err != nil {
			p.failed.Add(1)
			p.logger.Debug("work item failed", "error", err)
		}

		if p.metrics != nil {
			p.metrics.processed.Inc()
			if err != nil {
				p.metrics.failed.Inc()
			}
		}
	}
}

// poolMetrics holds Prometheus metrics for worker pool monitoring
type poolMetrics struct {
	queueDepth  prometheus.Gauge
	utilization prometheus.Gauge
	submitted   prometheus.Counter
	processed   prometheus.Counter
	failed      prometheus.Counter
	dropped     prometheus.Counter
}

func newPoolMetrics(registry *metric.MetricsRegistry, prefix string) (*poolMetrics, error) {
	labels := prometheus.Labels{"pool": prefix}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "staticfifo", Subsystem: "worker", Name: name, Help: help, ConstLabels: labels,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "staticfifo", Subsystem: "worker", Name: name, Help: help, ConstLabels: labels,
		})
	}

	m := &poolMetrics{
		queueDepth:  gauge("queue_depth", "Current worker pool queue depth"),
		utilization: gauge("utilization", "Worker pool queue utilization (0-1)"),
		submitted:   counter("submitted_total", "Total work items submitted"),
		processed:   counter("processed_total", "Total work items processed"),
		failed:      counter("failed_total", "Total work items that failed processing"),
		dropped:     counter("dropped_total", "Total work items dropped due to full queue"),
	}

	component := "worker_" + prefix
	gauges := []struct {
		name  string
		gauge prometheus.Gauge
	}{
		{"queue_depth", m.queueDepth},
		{"utilization", m.utilization},
	}
	counters := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"submitted_total", m.submitted},
		{"processed_total", m.processed},
		{"failed_total", m.failed},
		{"dropped_total", m.dropped},
	}

	var registered []string
	rollback := func() {
		for _, name := range registered {
			registry.Unregister(component, name)
		}
	}
	for _, g := range gauges {
		if err := registry.RegisterGauge(component, g.name, g.gauge); err != nil {
			rollback()
			return nil, err
		}
		registered = append(registered, g.name)
	}
	for _, c := range counters {
		if err := registry.RegisterCounter(component, c.name, c.counter); err != nil {
			rollback()
			return nil, err
		}
		registered = append(registered, c.name)
	}
	return m, nil
}

func (m *poolMetrics) setDepth(depth, size int) {
	m.queueDepth.Set(float64(depth))
	m.utilization.Set(float64(depth) / float64(size))
}

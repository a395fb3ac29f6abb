package buffer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360/staticfifo/errors"
	"github.com/c360/staticfifo/pkg/fifo"
)

// circularBuffer applies an overflow policy and observability on top of a fifo.RingBuffer.
// Like the ring it wraps, it has a single owner and performs no locking.
type circularBuffer[T any] struct {
	ring    *fifo.RingBuffer[T]
	stats   *Statistics    // ALWAYS initialized for observability
	metrics *bufferMetrics // Optional Prometheus metrics
	opts    *bufferOptions[T]
	logger  *slog.Logger
	closed  bool
}

// newCircularBuffer creates a new circular buffer instance.
// Returns an error if metrics registration fails when requested.
func newCircularBuffer[T any](capacity int, opts *bufferOptions[T]) (*circularBuffer[T], error) {
	if capacity <= 0 {
		capacity = 1 // Minimum capacity
	}

	if len(opts.initial) > capacity {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %d items for capacity %d", errors.ErrCapacityExceeded, len(opts.initial), capacity),
			"Buffer", "newCircularBuffer", "initial contents")
	}

	stats := NewStatistics()

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "Buffer", "newCircularBuffer", "metrics registration")
		}
	}

	cb := &circularBuffer[T]{
		ring:    fifo.From(capacity, opts.initial...),
		stats:   stats,
		metrics: metrics,
		opts:    opts,
		logger:  opts.logger.With("component", "buffer", "name", opts.metricsPrefix),
	}

	if n := cb.ring.Count(); n > 0 {
		cb.stats.AddWrites(int64(n))
		cb.stats.UpdateSize(int64(n))
		if cb.metrics != nil {
			cb.metrics.recordWrites(n, n, capacity)
		}
	}

	return cb, nil
}

func (cb *circularBuffer[T]) closedError(method string) error {
	return errors.WrapInvalid(errors.ErrBufferClosed, "Buffer", method, "buffer closed")
}

// Write adds an item to the buffer according to the overflow policy.
func (cb *circularBuffer[T]) Write(item T) error {
	if cb.closed {
		return cb.closedError("Write")
	}

	if cb.ring.IsFull() {
		switch cb.opts.overflowPolicy {
		case DropNewest:
			cb.recordOverflow(1)
			if cb.opts.dropCallback != nil {
				cb.opts.dropCallback(item)
			}
			return nil

		default:
			dropped, _ := cb.ring.Peek()
			cb.ring.PushOne(item, true)
			cb.recordOverflow(1)
			cb.recordWrites(1)
			if cb.opts.dropCallback != nil {
				cb.opts.dropCallback(dropped)
			}
			return nil
		}
	}

	cb.ring.PushOne(item, false)
	cb.recordWrites(1)
	return nil
}

// WriteBatch adds items in order according to the overflow policy.
func (cb *circularBuffer[T]) WriteBatch(items []T) (int, error) {
	if cb.closed {
		return 0, cb.closedError("WriteBatch")
	}
	if len(items) == 0 {
		return 0, nil
	}

	if cb.opts.overflowPolicy == DropNewest {
		grown := cb.ring.Push(items, false)
		if grown == 0 {
			cb.recordOverflow(len(items))
			cb.logger.Debug("batch declined",
				"items", len(items), "free", cb.ring.Free())
			if cb.opts.dropCallback != nil {
				for _, item := range items {
					cb.opts.dropCallback(item)
				}
			}
			return 0, nil
		}
		cb.recordWrites(grown)
		return grown, nil
	}

	// Items that will not survive the push: the oldest buffered ones first, then
	// the head of the batch itself when it is longer than the capacity.
	var dropped []T
	over := cb.ring.Count() + len(items) - cb.ring.Cap()
	if over > 0 && cb.opts.dropCallback != nil {
		dropped = make([]T, 0, over)
		old := min(over, cb.ring.Count())
		for i := 0; i < old; i++ {
			dropped = append(dropped, cb.ring.At(i))
		}
		dropped = append(dropped, items[:over-old]...)
	}

	grown := cb.ring.Push(items, true)
	if over > 0 {
		cb.recordOverflow(over)
	}
	cb.recordWrites(len(items))

	for _, item := range dropped {
		cb.opts.dropCallback(item)
	}
	return grown, nil
}

func (cb *circularBuffer[T]) recordWrites(n int) {
	size := cb.ring.Count()

	// ALWAYS track in stats
	cb.stats.AddWrites(int64(n))
	cb.stats.UpdateSize(int64(size))

	// ALSO track in metrics if enabled
	if cb.metrics != nil {
		cb.metrics.recordWrites(n, size, cb.ring.Cap())
	}
}

// recordOverflow counts n items that found no room, each of which cost one
// item: the oldest under DropOldest, the item itself under DropNewest.
func (cb *circularBuffer[T]) recordOverflow(n int) {
	cb.stats.AddOverflows(int64(n))
	cb.stats.AddDrops(int64(n))

	if cb.metrics != nil {
		cb.metrics.recordOverflows(n)
		cb.metrics.recordDrops(n)
	}
}

func (cb *circularBuffer[T]) recordReads(n int) {
	size := cb.ring.Count()

	cb.stats.AddReads(int64(n))
	cb.stats.UpdateSize(int64(size))

	if cb.metrics != nil {
		cb.metrics.recordReads(n, size, cb.ring.Cap())
	}
}

// take moves up to len(dst) items into dst and zeroes the vacated slots so the
// buffer does not keep them reachable.
func (cb *circularBuffer[T]) take(dst []T) int {
	n := cb.ring.Read(dst)
	var zero T
	for i := 0; i < n; i++ {
		*cb.ring.UncheckedRef(i) = zero
	}
	cb.ring.Drop(n)
	return n
}

// Read retrieves and removes one item from the buffer.
func (cb *circularBuffer[T]) Read() (T, bool) {
	var item [1]T
	if cb.take(item[:]) == 0 {
		// Don't record a miss for empty reads, just return
		return item[0], false
	}
	cb.recordReads(1)
	return item[0], true
}

// ReadBatch retrieves and removes up to max items from the buffer.
func (cb *circularBuffer[T]) ReadBatch(max int) []T {
	if max <= 0 || cb.ring.IsEmpty() {
		return nil
	}

	result := make([]T, min(max, cb.ring.Count()))
	n := cb.take(result)
	cb.recordReads(n)
	return result[:n]
}

// ReadInto moves up to len(dst) items into dst.
func (cb *circularBuffer[T]) ReadInto(dst []T) int {
	n := cb.take(dst)
	if n > 0 {
		cb.recordReads(n)
	}
	return n
}

// Peek retrieves one item without removing it from the buffer.
func (cb *circularBuffer[T]) Peek() (T, bool) {
	item, ok := cb.ring.Peek()
	if !ok {
		return item, false
	}

	cb.stats.Peek()
	if cb.metrics != nil {
		cb.metrics.recordPeek()
	}
	return item, true
}

// Drop discards up to n of the oldest items, handing each to the drop callback.
func (cb *circularBuffer[T]) Drop(n int) int {
	n = min(n, cb.ring.Count())
	if n <= 0 {
		return 0
	}

	var dropped []T
	if cb.opts.dropCallback != nil {
		dropped = make([]T, n)
		cb.ring.Read(dropped)
	}

	var zero T
	for i := 0; i < n; i++ {
		*cb.ring.UncheckedRef(i) = zero
	}
	cb.ring.Drop(n)

	cb.stats.UpdateSize(int64(cb.ring.Count()))
	if cb.metrics != nil {
		cb.metrics.updateSize(cb.ring.Count(), cb.ring.Cap())
	}

	for _, item := range dropped {
		cb.opts.dropCallback(item)
	}
	return n
}

// Contents returns a copy of the buffered items, oldest first.
func (cb *circularBuffer[T]) Contents() []T {
	return cb.ring.AppendTo(nil)
}

// Size returns the current number of items in the buffer.
func (cb *circularBuffer[T]) Size() int {
	return cb.ring.Count()
}

// Capacity returns the maximum number of items the buffer can hold.
func (cb *circularBuffer[T]) Capacity() int {
	return cb.ring.Cap()
}

// IsFull returns true if the buffer is at maximum capacity.
func (cb *circularBuffer[T]) IsFull() bool {
	return cb.ring.IsFull()
}

// IsEmpty returns true if the buffer contains no items.
func (cb *circularBuffer[T]) IsEmpty() bool {
	return cb.ring.IsEmpty()
}

// Clear removes all items from the buffer.
func (cb *circularBuffer[T]) Clear() {
	var itemsToDrop []T
	if cb.opts.dropCallback != nil {
		itemsToDrop = cb.ring.AppendTo(nil)
	}

	clear(cb.ring.Data())
	cb.ring.Reset()

	cb.stats.UpdateSize(0)
	if cb.metrics != nil {
		cb.metrics.updateSize(0, cb.ring.Cap())
	}

	for _, item := range itemsToDrop {
		cb.opts.dropCallback(item)
	}
}

// Stats returns buffer statistics (always available for observability).
func (cb *circularBuffer[T]) Stats() *Statistics {
	return cb.stats
}

// Close stops the buffer accepting writes.
func (cb *circularBuffer[T]) Close() error {
	if cb.closed {
		return nil
	}
	cb.closed = true

	if cb.logger.Enabled(context.Background(), slog.LevelDebug) {
		summary := cb.stats.Summary()
		cb.logger.Debug("buffer closed",
			"remaining", cb.ring.Count(),
			"writes", summary.Writes,
			"reads", summary.Reads,
			"drops", summary.Drops)
	}
	return nil
}

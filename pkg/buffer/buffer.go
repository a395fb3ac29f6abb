// Package buffer layers overflow policies, drop callbacks, statistics and optional
// Prometheus metrics over the fifo ring buffer.
//
// This package offers:
//   - CircularBuffer: fixed-capacity buffer backed by fifo.RingBuffer
//   - DropOldest and DropNewest overflow policies
//   - Statistics always enabled for observability
//   - Optional Prometheus metrics via the WithMetrics() functional option
package buffer

// Buffer represents a generic buffer interface that all buffer implementations must satisfy.
// The buffer is parameterized by item type T for type safety.
type Buffer[T any] interface {
	// Write adds an item to the buffer. A full buffer applies the overflow policy;
	// an item declined by DropNewest is not an error. Returns an error after Close.
	Write(item T) error

	// WriteBatch adds items in order and returns how many grew the buffer.
	// Under DropNewest a batch that does not fit is declined whole.
	WriteBatch(items []T) (int, error)

	// Read retrieves and removes one item from the buffer.
	// Returns the item and true if successful, zero value and false if buffer is empty.
	Read() (T, bool)

	// ReadBatch retrieves and removes up to max items from the buffer.
	// Returns a slice containing the retrieved items (may be shorter than max).
	ReadBatch(max int) []T

	// ReadInto moves up to len(dst) items into dst and returns how many were moved.
	ReadInto(dst []T) int

	// Peek retrieves one item without removing it from the buffer.
	// Returns the item and true if successful, zero value and false if buffer is empty.
	Peek() (T, bool)

	// Drop discards up to n of the oldest items and returns how many were discarded.
	Drop(n int) int

	// Contents returns a copy of the buffered items, oldest first.
	Contents() []T

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	Capacity() int

	// IsFull returns true if the buffer is at maximum capacity.
	IsFull() bool

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics

	// Close stops the buffer accepting writes. Buffered items can still be read.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// ParseOverflowPolicy maps a configuration name to a policy. The empty string
// selects DropOldest.
func ParseOverflowPolicy(name string) (OverflowPolicy, bool) {
	switch name {
	case "", "drop_oldest", "DropOldest":
		return DropOldest, true
	case "drop_newest", "DropNewest":
		return DropNewest, true
	default:
		return DropOldest, false
	}
}

// DropCallback is called when an item is dropped due to overflow policy, Drop or Clear.
// It receives the item that was dropped.
type DropCallback[T any] func(item T)

// NewCircularBuffer creates a new circular buffer with the specified capacity and options.
// Stats are ALWAYS collected for observability. Metrics are optional via WithMetrics().
// Returns an error if metrics registration fails or the initial items do not fit.
// Capacity is required - all other configuration is via functional options.
func NewCircularBuffer[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}

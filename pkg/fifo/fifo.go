package fifo

import (
	"fmt"
	"slices"
)

// RingBuffer is a fixed-capacity FIFO over a single backing slice.
//
// The backing slice is sized once, by New or by the caller through NewWithStorage,
// and is never grown or reallocated. None of the push, pop, pull, read, drop or
// reset operations allocate.
//
// A RingBuffer is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
type RingBuffer[T any] struct {
	storage  []T
	readIdx  int // next slot to read
	writeIdx int // next slot to write
	count    int // logically valid elements
}

// New returns an empty ring buffer holding at most capacity elements.
// It panics if capacity is not positive.
func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("fifo: capacity must be positive, got %d", capacity))
	}
	return &RingBuffer[T]{storage: make([]T, capacity)}
}

// NewWithStorage returns an empty ring buffer backed by storage. The capacity is
// len(storage). The buffer owns storage from then on; the caller must not touch it.
//
//	var slots [64]Sample
//	r := fifo.NewWithStorage(slots[:])
func NewWithStorage[T any](storage []T) *RingBuffer[T] {
	if len(storage) == 0 {
		panic("fifo: storage must hold at least one slot")
	}
	return &RingBuffer[T]{storage: storage}
}

// From returns a ring buffer of the given capacity holding items in order, as if
// each had been pushed without overwrite. Supplying more items than capacity panics.
func From[T any](capacity int, items ...T) *RingBuffer[T] {
	r := New[T](capacity)
	if len(items) > capacity {
		panic(fmt.Sprintf("fifo: %d initial items exceed capacity %d", len(items), capacity))
	}
	r.Push(items, false)
	return r
}

// Count returns the number of elements waiting to be read.
func (r *RingBuffer[T]) Count() int { return r.count }

// Cap returns the fixed capacity.
func (r *RingBuffer[T]) Cap() int { return len(r.storage) }

// Free returns how many elements can be pushed without overwrite.
func (r *RingBuffer[T]) Free() int { return len(r.storage) - r.count }

// IsEmpty reports whether Count is zero.
func (r *RingBuffer[T]) IsEmpty() bool { return r.count == 0 }

// IsFull reports whether Count equals Cap.
func (r *RingBuffer[T]) IsFull() bool { return r.count == len(r.storage) }

// Reset empties the buffer. Stored values are not wiped, only made unreachable.
func (r *RingBuffer[T]) Reset() {
	r.readIdx = 0
	r.writeIdx = 0
	r.count = 0
}

// next advances a physical index by one slot.
func (r *RingBuffer[T]) next(idx int) int {
	idx++
	if idx == len(r.storage) {
		return 0
	}
	return idx
}

// Pop removes and returns the oldest element. It returns false, and the zero
// value, when the buffer is empty.
func (r *RingBuffer[T]) Pop() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	v := r.storage[r.readIdx]
	r.readIdx = r.next(r.readIdx)
	r.count--
	return v, true
}

// Peek returns the oldest element without removing it.
func (r *RingBuffer[T]) Peek() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.storage[r.readIdx], true
}

// Back returns the newest element without removing it.
func (r *RingBuffer[T]) Back() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	idx := r.writeIdx - 1
	if idx < 0 {
		idx = len(r.storage) - 1
	}
	return r.storage[idx], true
}

// Push appends src in order.
//
// Without overwrite the push is all-or-nothing: if src does not fit in the free
// space nothing is written and 0 is returned. With overwrite every element is
// written; once the buffer is full each further element replaces the oldest one
// and the front advances.
//
// The result counts only elements that grew the buffer. Elements that replaced an
// already counted slot are not included, so with overwrite the result can be
// smaller than len(src).
func (r *RingBuffer[T]) Push(src []T, overwrite bool) int {
	if !overwrite && len(src) > len(r.storage)-r.count {
		return 0
	}

	grown := 0
	for _, v := range src {
		r.storage[r.writeIdx] = v
		r.writeIdx = r.next(r.writeIdx)

		if r.count < len(r.storage) {
			r.count++
			grown++
		} else {
			// oldest element was just overwritten
			r.readIdx = r.writeIdx
		}
	}
	return grown
}

// PushValues appends vals without overwrite. See Push.
func (r *RingBuffer[T]) PushValues(vals ...T) int {
	return r.Push(vals, false)
}

// PushOne appends a single element and reports whether the buffer grew.
// With overwrite on a full buffer the element is stored, the oldest element is
// discarded, and false is returned.
func (r *RingBuffer[T]) PushOne(v T, overwrite bool) bool {
	if r.count == len(r.storage) {
		if !overwrite {
			return false
		}
		r.storage[r.writeIdx] = v
		r.writeIdx = r.next(r.writeIdx)
		r.readIdx = r.writeIdx
		return false
	}
	r.storage[r.writeIdx] = v
	r.writeIdx = r.next(r.writeIdx)
	r.count++
	return true
}

// Drop discards up to n of the oldest elements and returns how many were
// discarded. Asking for more than Count is not an error.
func (r *RingBuffer[T]) Drop(n int) int {
	if n <= 0 {
		return 0
	}
	if n > r.count {
		n = r.count
	}
	r.count -= n
	r.readIdx = (r.readIdx + n) % len(r.storage)
	return n
}

// Pull moves up to len(dst) of the oldest elements into dst, removing them from
// the buffer, and returns how many were moved.
func (r *RingBuffer[T]) Pull(dst []T) int {
	n := r.copyOut(dst, r.readIdx)
	r.readIdx = (r.readIdx + n) % len(r.storage)
	r.count -= n
	return n
}

// Read copies up to len(dst) of the oldest elements into dst without removing
// them. Repeated calls on an unchanged buffer yield the same output.
func (r *RingBuffer[T]) Read(dst []T) int {
	return r.copyOut(dst, r.readIdx)
}

// copyOut copies min(len(dst), count) logical elements starting at physical
// index from. It uses at most two copies, one per contiguous run.
func (r *RingBuffer[T]) copyOut(dst []T, from int) int {
	n := len(dst)
	if n > r.count {
		n = r.count
	}
	if n == 0 {
		return 0
	}
	first := copy(dst[:n], r.storage[from:])
	if first < n {
		copy(dst[first:n], r.storage[:n-first])
	}
	return n
}

// AppendTo appends the logical contents, oldest first, to dst.
func (r *RingBuffer[T]) AppendTo(dst []T) []T {
	start := len(dst)
	if cap(dst)-start < r.count {
		grown := make([]T, start, start+r.count)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:start+r.count]
	r.copyOut(dst[start:], r.readIdx)
	return dst
}

// physical maps a logical position to a storage index.
func (r *RingBuffer[T]) physical(i int) int {
	return (r.readIdx + i) % len(r.storage)
}

// At returns the element i positions from the front. It panics unless
// 0 <= i < Count.
func (r *RingBuffer[T]) At(i int) T {
	if i < 0 || i >= r.count {
		panic(fmt.Sprintf("fifo: index %d out of range [0, %d)", i, r.count))
	}
	return r.storage[r.physical(i)]
}

// Set replaces the element i positions from the front. It panics unless
// 0 <= i < Count.
func (r *RingBuffer[T]) Set(i int, v T) {
	if i < 0 || i >= r.count {
		panic(fmt.Sprintf("fifo: index %d out of range [0, %d)", i, r.count))
	}
	r.storage[r.physical(i)] = v
}

// UncheckedRef returns a pointer to the slot i positions from the front without
// checking i against Count. Positions at or past Count alias stale slots; i must
// not be negative. Use At or Set unless the bounds check is measurably in the way.
func (r *RingBuffer[T]) UncheckedRef(i int) *T {
	return &r.storage[r.physical(i)]
}

// Data exposes the backing slice in physical order. Index 0 is the first slot of
// storage, not the logical front, and slots outside the logical range hold stale
// values. Prefer Read, AppendTo or All.
//
// The slice aliases the buffer's storage, so a write through it changes whatever
// item occupies that slot without any bounds or ordering checks. Treat it as
// read-only unless you track the physical layout yourself. Its capacity is
// clipped so that appending to it never writes into storage.
func (r *RingBuffer[T]) Data() []T {
	return slices.Clip(r.storage)
}

// Clone returns an independent buffer with the same capacity and logical contents.
// The physical layout of the clone is not preserved.
func (r *RingBuffer[T]) Clone() *RingBuffer[T] {
	c := New[T](len(r.storage))
	c.count = r.copyOut(c.storage, r.readIdx)
	c.writeIdx = c.count % len(c.storage)
	return c
}

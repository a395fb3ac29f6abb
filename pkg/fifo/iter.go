package fifo

import "iter"

// Cursor walks the logical contents of a RingBuffer, oldest first.
//
// A Cursor snapshots the front position and element count when it is created and
// yields copies. It is forward-only and single-pass; copy the Cursor value to keep
// an earlier position. Mutating the buffer while a Cursor is live is unsupported:
// the cursor keeps walking the slots it snapshotted.
type Cursor[T any] struct {
	r         *RingBuffer[T]
	idx       int
	remaining int
}

// Iter returns a Cursor positioned at the current front.
func (r *RingBuffer[T]) Iter() Cursor[T] {
	return Cursor[T]{r: r, idx: r.readIdx, remaining: r.count}
}

// Next returns the next element, or false once the snapshot is exhausted.
func (c *Cursor[T]) Next() (T, bool) {
	if c.remaining == 0 {
		var zero T
		return zero, false
	}
	v := c.r.storage[c.idx]
	c.idx = c.r.next(c.idx)
	c.remaining--
	return v, true
}

// Remaining returns how many elements Next will still yield.
func (c *Cursor[T]) Remaining() int { return c.remaining }

// All returns an iterator over the logical contents, oldest first. Each call to
// the returned sequence starts from the buffer's state at that moment.
//
//	for v := range r.All() {
//		...
//	}
func (r *RingBuffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		c := r.Iter()
		for {
			v, ok := c.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Backward returns an iterator over the logical contents, newest first.
func (r *RingBuffer[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := r.count - 1; i >= 0; i-- {
			if !yield(r.storage[r.physical(i)]) {
				return
			}
		}
	}
}

// Equal reports whether a and b have the same capacity and hold the same elements
// in the same logical order. Where the elements sit in storage does not matter.
func Equal[T comparable](a, b *RingBuffer[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

// EqualFunc is like Equal but compares elements with eq.
func EqualFunc[T any](a, b *RingBuffer[T], eq func(x, y T) bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a.storage) != len(b.storage) || a.count != b.count {
		return false
	}

	ai, bi := a.readIdx, b.readIdx
	for i := 0; i < a.count; i++ {
		if !eq(a.storage[ai], b.storage[bi]) {
			return false
		}
		ai = a.next(ai)
		bi = b.next(bi)
	}
	return true
}

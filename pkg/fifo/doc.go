// Package fifo provides RingBuffer, a fixed-capacity first-in-first-out buffer over a
// single backing slice that is never grown.
//
// # Quick Start
//
//	r := fifo.New[int](8)
//	r.PushValues(1, 2, 3)
//
//	v, ok := r.Pop() // 1, true
//
//	out := make([]int, 4)
//	n := r.Pull(out) // 2, out[:n] == [2 3]
//
// A buffer can also be backed by caller-owned storage, so that no allocation happens
// at all:
//
//	var slots [256]byte
//	r := fifo.NewWithStorage(slots[:])
//
// # Writes
//
// Push takes an overwrite flag. Without it a push that does not fit is declined
// whole and returns 0. With it, elements beyond the free space replace the oldest
// ones. Push returns the number of elements that grew the buffer, which excludes
// elements that replaced existing ones.
//
//	r := fifo.From(5, 1, 2, 3, 4, 5)
//	r.Push([]int{11, 12}, false) // 0, buffer unchanged
//	r.Push([]int{11, 12}, true)  // 0, buffer is now 3 4 5 11 12
//
// # Reads
//
//   - Pop removes one element.
//   - Pull removes up to len(dst) elements into dst.
//   - Read copies up to len(dst) elements into dst and leaves the buffer alone.
//   - Drop discards up to n elements.
//   - Peek and Back look at the oldest and newest element.
//
// Requests larger than Count are clamped; they are never errors.
//
// # Indexing
//
// At and Set address elements relative to the logical front and panic outside
// [0, Count). UncheckedRef skips that check and hands out a pointer into storage.
// Data returns storage itself in physical order, which is generally NOT the
// logical order.
//
// # Iteration and equality
//
// Iter returns a Cursor that snapshots the front and count; All and Backward return
// iter.Seq values for range loops. Equal compares two buffers by capacity and
// logical contents, ignoring where those contents sit in storage.
//
// # Contract violations
//
// A non-positive capacity, more initial items than capacity, and an out-of-range
// At/Set are programming errors and panic. Everything else reports through return
// values.
//
// # Thread Safety
//
// None. A RingBuffer has one owner. The buffer package layers statistics and
// metrics on top of it.
package fifo

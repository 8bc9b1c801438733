// File: core/ring/cursor.go
// Package ring implements the fixed-capacity circular buffer family.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cursor state: the {start,write} index pair plus the physical slot count.
// The exclusive strategy keeps plain wrapped indices. The concurrent
// strategy packs two free-running tickets into one atomic uint64 so a
// single load always yields a mutually consistent pair, and mutates it
// with compare-and-swap; tickets map to slots through a power-of-two mask,
// so the mapping stays coherent across uint32 overflow.

package ring

import "sync/atomic"

// cursor is the synchronization strategy for the occupancy window.
//
// The advance/retract primitives are single CAS attempts conditioned on an
// observed snapshot; the engine wraps them in retry loops. install and reset
// have no internal synchronization and require external quiescence.
type cursor interface {
	// snapshot returns the current (start, write) pair. Never torn.
	snapshot() (start, write uint32)

	// span returns the physical slot count.
	span() uint32

	// capacity returns the logical capacity. Always below span.
	capacity() uint32

	// size decodes the occupancy from a (start, write) pair of this
	// strategy's representation.
	size(start, write uint32) uint32

	// advanceWrite moves write forward one slot, conditioned on the pair
	// still being (start, write). When the buffer is at capacity, start
	// moves too in the same step: this is the overwrite-oldest eviction.
	// Reports (evicted, applied).
	advanceWrite(start, write uint32) (evicted, applied bool)

	// advanceStart moves start forward one slot, conditioned on the pair.
	advanceStart(start, write uint32) bool

	// retractWrite moves write backward n slots, conditioned on the pair.
	// The caller guarantees n does not exceed the current size.
	retractWrite(start, write, n uint32) bool

	// reset returns both indices to zero.
	reset()

	// install replaces the whole cursor state. Used only by Reserve under
	// external quiescence.
	install(start, write, span, capacity uint32)
}

// next advances a wrapped physical index by one slot.
func next(i, span uint32) uint32 {
	i++
	if i == span {
		return 0
	}
	return i
}

// sizeOf decodes the occupancy from a wrapped (start, write) pair.
func sizeOf(start, write, span uint32) uint32 {
	if write >= start {
		return write - start
	}
	return span - (start - write)
}

// physIdx maps a logical offset to a physical slot index. Valid for both
// strategies: the concurrent span is a power of two, so the modulo keeps
// absorbing ticket overflow.
func physIdx(start, logical, span uint32) uint32 {
	return (start + logical) % span
}

// pack encodes a (start, write) pair into one machine word.
func pack(start, write uint32) uint64 {
	return uint64(start)<<32 | uint64(write)
}

// unpack decodes a packed cursor word.
func unpack(word uint64) (start, write uint32) {
	return uint32(word >> 32), uint32(word)
}

// ceilPow2 rounds v up to the next power of two, minimum 2.
func ceilPow2(v uint32) uint32 {
	if v < 2 {
		return 2
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	return v + 1
}

// exclusiveCursor is the no-synchronization strategy: wrapped indices in
// [0, span), one sentinel slot keeping write from colliding with start. All
// conditioned primitives trivially apply because a single accessor never
// observes a stale snapshot.
type exclusiveCursor struct {
	start uint32
	write uint32
	spanv uint32
}

func (c *exclusiveCursor) snapshot() (uint32, uint32) { return c.start, c.write }
func (c *exclusiveCursor) span() uint32               { return c.spanv }
func (c *exclusiveCursor) capacity() uint32           { return c.spanv - 1 }

func (c *exclusiveCursor) size(start, write uint32) uint32 {
	return sizeOf(start, write, c.spanv)
}

func (c *exclusiveCursor) advanceWrite(start, write uint32) (bool, bool) {
	w := next(c.write, c.spanv)
	evicted := false
	if w == c.start {
		c.start = next(c.start, c.spanv)
		evicted = true
	}
	c.write = w
	return evicted, true
}

func (c *exclusiveCursor) advanceStart(start, write uint32) bool {
	if c.start == c.write {
		return true
	}
	c.start = next(c.start, c.spanv)
	return true
}

func (c *exclusiveCursor) retractWrite(start, write, n uint32) bool {
	c.write = (c.write + c.spanv - n%c.spanv) % c.spanv
	return true
}

func (c *exclusiveCursor) reset() {
	c.start, c.write = 0, 0
}

func (c *exclusiveCursor) install(start, write, span, capacity uint32) {
	c.start, c.write, c.spanv = start, write, span
}

// atomicCursor packs two free-running tickets into one atomic word. Every
// mutation is a single CAS conditioned on the caller's snapshot; the engine
// retries on failure. Lock-free, not wait-free.
//
// Tickets increment without wrapping at span; uint32 arithmetic makes the
// size (write - start) and the slot mapping (ticket & mask) exact across
// overflow because the span is a power of two. A ticket value doubles as
// the write-turn tag of its cell, which is what lets readers tell a landed
// store from a claimed slot whose store is still in flight.
type atomicCursor struct {
	packed atomic.Uint64
	mask   uint32 // span - 1
	capv   uint32 // logical capacity, at most span-1

	// contention accounting, in the TaskQ stats idiom
	retries   atomic.Uint64
	evictions atomic.Uint64
}

func (c *atomicCursor) snapshot() (uint32, uint32) {
	return unpack(c.packed.Load())
}

func (c *atomicCursor) span() uint32     { return c.mask + 1 }
func (c *atomicCursor) capacity() uint32 { return c.capv }

func (c *atomicCursor) size(start, write uint32) uint32 {
	return write - start
}

func (c *atomicCursor) advanceWrite(start, write uint32) (bool, bool) {
	s := start
	evicted := false
	if write-start == c.capv {
		s = start + 1
		evicted = true
	}
	if !c.packed.CompareAndSwap(pack(start, write), pack(s, write+1)) {
		c.retries.Add(1)
		return false, false
	}
	if evicted {
		c.evictions.Add(1)
	}
	return evicted, true
}

func (c *atomicCursor) advanceStart(start, write uint32) bool {
	if start == write {
		return true
	}
	if !c.packed.CompareAndSwap(pack(start, write), pack(start+1, write)) {
		c.retries.Add(1)
		return false
	}
	return true
}

func (c *atomicCursor) retractWrite(start, write, n uint32) bool {
	if !c.packed.CompareAndSwap(pack(start, write), pack(start, write-n)) {
		c.retries.Add(1)
		return false
	}
	return true
}

func (c *atomicCursor) reset() {
	c.packed.Store(0)
}

// install requires external quiescence: mask and capv are plain fields and
// the packed store is not conditioned.
func (c *atomicCursor) install(start, write, span, capacity uint32) {
	c.mask = span - 1
	c.capv = capacity
	c.packed.Store(pack(start, write))
}

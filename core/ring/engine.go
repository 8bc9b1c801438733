// File: core/ring/engine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The insert/erase/push engine, written once against the cursor and slot
// array strategies. Translates logical operations into physical slot moves,
// uniformly through modulo arithmetic: a logical range may straddle physical
// index zero at any time.

package ring

import "runtime"

const goschedEvery = 64 // reduce runtime.Gosched() frequency in hot loops

// slotArray abstracts the backing storage. The exclusive variant uses plain
// slices; the concurrent variant uses atomic pointer cells.
type slotArray[E any] interface {
	load(i uint32) E
	store(i uint32, v E)
	// swap stores v and returns the previous slot content.
	swap(i uint32, v E) E
	length() uint32
}

// engine binds a slot array to a cursor strategy.
type engine[E any] struct {
	arr slotArray[E]
	cur cursor
}

func (e *engine[E]) size() uint32 {
	s, w := e.cur.snapshot()
	return e.cur.size(s, w)
}

func (e *engine[E]) capacity() uint32 { return e.cur.capacity() }

// pushBack claims the write slot through the cursor, then stores v into it.
// Returns the displaced slot content, no longer referenced by any logical
// position. The concurrent variant does not use this path for its end
// pushes; it publishes through the write-turn protocol in Shared instead.
func (e *engine[E]) pushBack(v E) (displaced E, evicted bool) {
	var spins uint32
	for {
		start, write := e.cur.snapshot()
		ev, applied := e.cur.advanceWrite(start, write)
		if applied {
			return e.arr.swap(physIdx(write, 0, e.cur.span()), v), ev
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// insert opens a gap at logical position pos by shifting the suffix one slot
// toward the tail, slot by slot through modulo arithmetic. When the buffer
// is full the shift drops the current last element instead of growing, and
// the cursor does not move. pos past the end degrades to pushBack.
//
// Single-writer only: the slot moves are ordinary stores performed between a
// cursor snapshot and the final cursor advance; a concurrent end operation
// landing inside that window is not reconciled.
func (e *engine[E]) insert(pos int, v E) (displaced E, dropped bool) {
	start, write := e.cur.snapshot()
	span := e.cur.span()
	size := e.cur.size(start, write)

	if pos < 0 {
		pos = 0
	}
	upos := uint32(pos)
	if upos >= size {
		return e.pushBack(v)
	}

	if size == e.cur.capacity() { // full: capacity-preserving insert drops the tail
		last := e.arr.load(physIdx(start, size-1, span))
		for i := size - 1; i > upos; i-- {
			e.arr.store(physIdx(start, i, span), e.arr.load(physIdx(start, i-1, span)))
		}
		e.arr.store(physIdx(start, upos, span), v)
		return last, true
	}

	for i := size; i > upos; i-- {
		e.arr.store(physIdx(start, i, span), e.arr.load(physIdx(start, i-1, span)))
	}
	e.arr.store(physIdx(start, upos, span), v)

	var spins uint32
	for {
		s, w := e.cur.snapshot()
		if _, applied := e.cur.advanceWrite(s, w); applied {
			break
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
	var zero E
	return zero, false
}

// eraseRange removes logical positions [first, last), shifting the remainder
// down and retracting write. A suffix erase skips the shift and retracts
// directly. Removed slot contents are passed to onRemove (may be nil) before
// their slots are cleared. Returns the logical index just past the removed
// range, i.e. first.
//
// Single-writer only, same contract as insert.
func (e *engine[E]) eraseRange(first, last int, onRemove func(E)) int {
	start, write := e.cur.snapshot()
	span := e.cur.span()
	size := e.cur.size(start, write)

	if first < 0 {
		first = 0
	}
	if last > int(size) {
		last = int(size)
	}
	if first >= last {
		if first > int(size) {
			first = int(size)
		}
		return first
	}
	ufirst, ulast := uint32(first), uint32(last)
	n := ulast - ufirst

	var zero E
	for i := ufirst; i < ulast; i++ {
		idx := physIdx(start, i, span)
		if onRemove != nil {
			onRemove(e.arr.load(idx))
		}
		e.arr.store(idx, zero)
	}

	if ulast < size {
		for i := ufirst; i+n < size; i++ {
			e.arr.store(physIdx(start, i, span), e.arr.load(physIdx(start, i+n, span)))
		}
		// clear the vacated tail so no slot aliases a live element
		for i := size - n; i < size; i++ {
			e.arr.store(physIdx(start, i, span), zero)
		}
	}

	var spins uint32
	for {
		s, w := e.cur.snapshot()
		if e.cur.retractWrite(s, w, n) {
			break
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
	return first
}

// at reads the slot at logical index i, clamping i into [0, capacity-1]
// rather than failing. Reads past the current size yield whatever the slot
// holds (saturating-read contract).
func (e *engine[E]) at(i int) E {
	start, _ := e.cur.snapshot()
	if i < 0 {
		i = 0
	}
	if ui := uint32(i); ui >= e.cur.capacity() {
		i = int(e.cur.capacity() - 1)
	}
	return e.arr.load(physIdx(start, uint32(i), e.cur.span()))
}

// front reads the oldest element; zero value when empty.
func (e *engine[E]) front() E {
	start, write := e.cur.snapshot()
	if start == write {
		var zero E
		return zero
	}
	return e.arr.load(physIdx(start, 0, e.cur.span()))
}

// back reads the newest element; zero value when empty.
func (e *engine[E]) back() E {
	start, write := e.cur.snapshot()
	span := e.cur.span()
	size := e.cur.size(start, write)
	if size == 0 {
		var zero E
		return zero
	}
	return e.arr.load(physIdx(start, size-1, span))
}

// popFront removes and returns the oldest element. Used by the exclusive
// variant; the concurrent variant has its own retain-before-claim pop.
func (e *engine[E]) popFront() (E, bool) {
	var spins uint32
	for {
		start, write := e.cur.snapshot()
		if start == write {
			var zero E
			return zero, false
		}
		v := e.arr.load(physIdx(start, 0, e.cur.span()))
		if e.cur.advanceStart(start, write) {
			return v, true
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// popBack removes and returns the newest element.
func (e *engine[E]) popBack() (E, bool) {
	var spins uint32
	for {
		start, write := e.cur.snapshot()
		span := e.cur.span()
		size := e.cur.size(start, write)
		if size == 0 {
			var zero E
			return zero, false
		}
		v := e.arr.load(physIdx(start, size-1, span))
		if e.cur.retractWrite(start, write, 1) {
			return v, true
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

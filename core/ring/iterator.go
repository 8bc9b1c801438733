// File: core/ring/iterator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Random-access bidirectional iterator over the logical sequence. An
// iterator is (buffer reference, logical offset): it re-derives its physical
// slot from the live cursor on every dereference, so it resyncs to the
// buffer's present state rather than snapshotting it. A structural mutation
// shifts what an existing iterator sees, it never dangles.

package ring

// Iterator walks the logical sequence of a ring. Navigation clamps at the
// logical bounds: advancing past End stays at End, retreating before Begin
// stays at Begin.
type Iterator[E any] struct {
	eng *engine[E]
	pos int
}

// Value dereferences the iterator against the buffer's current state.
// At End (or past the current size) it returns the zero value.
func (it Iterator[E]) Value() E {
	size := int(it.eng.size())
	if it.pos >= size || it.pos < 0 {
		var zero E
		return zero
	}
	start, _ := it.eng.cur.snapshot()
	span := it.eng.cur.span()
	return it.eng.arr.load(physIdx(start, uint32(it.pos), span))
}

// Next advances one position, clamping at End.
func (it *Iterator[E]) Next() {
	if it.pos < int(it.eng.size()) {
		it.pos++
	}
}

// Prev retreats one position, clamping at Begin.
func (it *Iterator[E]) Prev() {
	if it.pos > 0 {
		it.pos--
	}
}

// Add returns an iterator n positions forward (n may be negative), clamped
// into [Begin, End].
func (it Iterator[E]) Add(n int) Iterator[E] {
	p := it.pos + n
	if p < 0 {
		p = 0
	}
	if size := int(it.eng.size()); p > size {
		p = size
	}
	return Iterator[E]{eng: it.eng, pos: p}
}

// Sub returns an iterator n positions backward, clamped.
func (it Iterator[E]) Sub(n int) Iterator[E] { return it.Add(-n) }

// Distance returns the signed logical distance it - other. Both iterators
// must reference the same buffer.
func (it Iterator[E]) Distance(other Iterator[E]) int { return it.pos - other.pos }

// Index returns the logical offset from Begin.
func (it Iterator[E]) Index() int { return it.pos }

// AtEnd reports whether the iterator sits at one past the last element,
// evaluated against the buffer's current size.
func (it Iterator[E]) AtEnd() bool { return it.pos >= int(it.eng.size()) }

// Equal reports whether two iterators of the same buffer reference the same
// logical position.
func (it Iterator[E]) Equal(other Iterator[E]) bool {
	return it.eng == other.eng && it.pos == other.pos
}

// File: core/ring/shared.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free concurrent ring variant. The cursor is one packed atomic word
// holding two free-running tickets, mutated by CAS retry loops; slots are
// cells carrying a handle pointer plus a write-turn sequence in the Vyukov
// manner, so a reader can always tell a landed store from a claimed cell
// whose store is still in flight.
//
// Cell protocol. A cell whose sequence equals ticket t is open for the
// write turn of ticket t; the writer stores its handle and bumps the
// sequence to t+1. A cell at t+1 holds the live element of ticket t. The
// single consumer of ticket t (a pop that won the cursor CAS, or the
// pusher whose claim evicted it) takes the handle out of the cell and
// opens the next write turn by setting the sequence to t+span. Ownership
// of the ring's reference travels with the extraction, so no accessor
// ever retains a handle it does not hold a reference to.
//
// Concurrency contract:
//   - PushBack, PopFront, PopBack, Front, Back, At, Len: any goroutine.
//     End operations are linearizable with respect to each other.
//   - Insert, Erase, EraseRange: single writer only. They read a cursor
//     snapshot, perform plain slot moves, then CAS the cursor; a concurrent
//     end operation landing inside that window is not reconciled.
//   - Reserve, Clear: external quiescence required.
//   - Full()-check-then-PushBack is inherently racy; callers wanting
//     reject-when-full accept that window or serialize externally.

package ring

import (
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/pool"
)

// Compile-time interface compliance.
var _ api.Deque[any] = (*Shared[any])(nil)

// Cell is one physical slot of the concurrent variant: the element handle
// plus the cell's write-turn sequence.
type Cell[T any] struct {
	seq atomic.Uint32
	h   atomic.Pointer[api.Handle[T]]
}

// sharedSlots adapts the cell array to the engine's slot interface for the
// single-writer operations. The concurrent paths go through the write-turn
// protocol directly.
type sharedSlots[T any] []Cell[T]

func (p sharedSlots[T]) load(i uint32) *api.Handle[T]     { return p[i].h.Load() }
func (p sharedSlots[T]) store(i uint32, v *api.Handle[T]) { p[i].h.Store(v) }
func (p sharedSlots[T]) swap(i uint32, v *api.Handle[T]) *api.Handle[T] {
	return p[i].h.Swap(v)
}
func (p sharedSlots[T]) length() uint32 { return uint32(len(p)) }

// SharedStats aggregates contention and traffic counters.
type SharedStats struct {
	Pushes     uint64
	Pops       uint64
	PopEmpty   uint64
	CASRetries uint64
	Evictions  uint64
}

// Shared is the lock-free multi-accessor ring variant.
type Shared[T any] struct {
	eng     engine[*api.Handle[T]]
	cur     *atomicCursor
	cells   sharedSlots[T]
	alloc   api.Allocator[Cell[T]]
	handles api.HandleSource[T]

	pushes   atomic.Uint64
	pops     atomic.Uint64
	popEmpty atomic.Uint64
}

// NewShared creates a concurrent ring with the given logical capacity,
// backed by the default heap allocator. Panics if capacity is out of range.
func NewShared[T any](capacity int) *Shared[T] {
	return NewSharedWithAllocator[T](capacity, pool.NewHeap[Cell[T]]())
}

// NewSharedWithAllocator creates a concurrent ring whose cell array is
// managed by alloc. The physical slot count is the logical capacity plus
// one, rounded up to a power of two so the ticket-to-slot mapping stays
// coherent across uint32 overflow.
func NewSharedWithAllocator[T any](capacity int, alloc api.Allocator[Cell[T]]) *Shared[T] {
	if capacity <= 0 || capacity > maxCapacity {
		panic(api.NewError(api.ErrCodeInvalidArgument,
			"ring: capacity out of range").WithContext("capacity", capacity))
	}
	span := ceilPow2(uint32(capacity) + 1)
	cells := sharedSlots[T](alloc.Allocate(int(span)))
	for i := range cells {
		cells[i].seq.Store(uint32(i))
	}
	cur := &atomicCursor{mask: span - 1, capv: uint32(capacity)}
	s := &Shared[T]{
		cur:     cur,
		cells:   cells,
		alloc:   alloc,
		handles: pool.NewHandlePool[T](),
	}
	s.eng = engine[*api.Handle[T]]{arr: cells, cur: cur}
	return s
}

// Len returns the number of elements currently held.
func (s *Shared[T]) Len() int { return int(s.eng.size()) }

// Cap returns the logical capacity.
func (s *Shared[T]) Cap() int { return int(s.eng.capacity()) }

// Empty reports Len() == 0.
func (s *Shared[T]) Empty() bool { return s.Len() == 0 }

// Full reports Len() == Cap(). Under concurrent mutation the answer may be
// stale by the time the caller acts on it.
func (s *Shared[T]) Full() bool { return s.Len() == s.Cap() }

func (s *Shared[T]) cellAt(t uint32) *Cell[T] {
	return &s.cells[t&s.cur.mask]
}

// publish stores h into the cell claimed at ticket w, waiting for the
// cell's write turn to open.
func (s *Shared[T]) publish(w uint32, h *api.Handle[T]) {
	c := s.cellAt(w)
	for c.seq.Load() != w {
		runtime.Gosched()
	}
	c.h.Store(h)
	c.seq.Store(w + 1)
}

// consume takes the handle of ticket t out of its cell, releases the
// ring's reference, and opens the cell's next write turn. Only the winner
// of the cursor CAS covering ticket t may call it.
func (s *Shared[T]) consume(t uint32) {
	c := s.cellAt(t)
	for c.seq.Load() != t+1 {
		runtime.Gosched()
	}
	if h := c.h.Swap(nil); h != nil {
		h.Release()
	}
	c.seq.Store(t + s.cur.span())
}

// PushBack appends v, evicting the front element if the buffer is full.
// The slot is claimed through the cursor CAS before the handle is stored,
// so no two pushes are ever assigned the same cell turn.
func (s *Shared[T]) PushBack(v T) {
	s.pushHandle(s.handles.Get(v))
	s.pushes.Add(1)
}

func (s *Shared[T]) pushHandle(h *api.Handle[T]) {
	var spins uint32
	for {
		start, write := s.cur.snapshot()
		evicted, applied := s.cur.advanceWrite(start, write)
		if applied {
			if evicted {
				s.consume(start)
			}
			s.publish(write, h)
			return
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// PopFront removes and returns the oldest element, false if empty.
func (s *Shared[T]) PopFront() (T, bool) {
	h, ok := s.PopFrontHandle()
	if !ok {
		var zero T
		return zero, false
	}
	v := h.Value()
	h.Release()
	return v, true
}

// PopFrontHandle removes the oldest element and returns its handle. The
// ring's reference transfers to the caller, who releases it when done,
// keeping the value alive however long the origin cell survives.
func (s *Shared[T]) PopFrontHandle() (*api.Handle[T], bool) {
	var spins uint32
	for {
		start, write := s.cur.snapshot()
		if start == write {
			s.popEmpty.Add(1)
			return nil, false
		}
		c := s.cellAt(start)
		if c.seq.Load() != start+1 {
			// claimed by a pusher, store not yet landed
			runtime.Gosched()
			continue
		}
		if s.cur.advanceStart(start, write) {
			h := c.h.Swap(nil)
			c.seq.Store(start + s.cur.span())
			s.pops.Add(1)
			return h, true
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// PopBack removes and returns the newest element, false if empty.
func (s *Shared[T]) PopBack() (T, bool) {
	var spins uint32
	for {
		start, write := s.cur.snapshot()
		if start == write {
			s.popEmpty.Add(1)
			var zero T
			return zero, false
		}
		t := write - 1
		c := s.cellAt(t)
		if c.seq.Load() != t+1 {
			runtime.Gosched()
			continue
		}
		if s.cur.retractWrite(start, write, 1) {
			h := c.h.Swap(nil)
			c.seq.Store(t) // the retracted ticket will be claimed again
			v := h.Value()
			h.Release()
			s.pops.Add(1)
			return v, true
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// readTicket copies the value of ticket t if its store has landed and the
// element has not been consumed; zero value otherwise.
func (s *Shared[T]) readTicket(t uint32) T {
	c := s.cellAt(t)
	if c.seq.Load() != t+1 {
		var zero T
		return zero
	}
	return handleValue(c.h.Load())
}

// Front returns a copy of the oldest element, zero value when empty.
func (s *Shared[T]) Front() T {
	start, write := s.cur.snapshot()
	if start == write {
		var zero T
		return zero
	}
	return s.readTicket(start)
}

// Back returns a copy of the newest element, zero value when empty.
func (s *Shared[T]) Back() T {
	start, write := s.cur.snapshot()
	if start == write {
		var zero T
		return zero
	}
	return s.readTicket(write - 1)
}

// At returns a copy of the element at logical index i, clamping i to
// [0, Cap()-1]. Reads past Len() yield the zero value.
func (s *Shared[T]) At(i int) T {
	start, _ := s.cur.snapshot()
	if i < 0 {
		i = 0
	}
	if limit := s.cur.capacity(); uint32(i) >= limit {
		i = int(limit - 1)
	}
	return s.readTicket(start + uint32(i))
}

// Insert places v at logical position pos, dropping the tail element when
// full. pos past the end degrades to PushBack. Single writer only; see the
// package contract.
func (s *Shared[T]) Insert(pos int, v T) {
	if pos >= s.Len() {
		s.PushBack(v)
		return
	}
	h := s.handles.Get(v)
	_, w0 := s.cur.snapshot()
	if displaced, dropped := s.eng.insert(pos, h); dropped {
		displaced.Release()
		s.cur.evictions.Add(1)
	} else {
		s.cellAt(w0).seq.Store(w0 + 1) // mark the appended turn stored
	}
	s.pushes.Add(1)
}

// Erase removes the element at pos. Single writer only.
func (s *Shared[T]) Erase(pos int) SharedIterator[T] {
	return s.EraseRange(pos, pos+1)
}

// EraseRange removes logical positions [first, last). Single writer only.
// Returns an iterator past the removed range.
func (s *Shared[T]) EraseRange(first, last int) SharedIterator[T] {
	start, write := s.cur.snapshot()
	size := int(s.cur.size(start, write))
	if first < 0 {
		first = 0
	}
	if last > size {
		last = size
	}
	n := last - first
	if n < 0 {
		n = 0
	}
	pos := s.eng.eraseRange(first, last, func(h *api.Handle[T]) {
		if h != nil {
			h.Release()
		}
	})
	// reopen the vacated write turns so the retracted tickets can be
	// claimed again
	for t := write - uint32(n); t != write; t++ {
		s.cellAt(t).seq.Store(t)
	}
	return SharedIterator[T]{s: s, pos: pos}
}

// Reserve grows the logical capacity to at least n, preserving logical
// order. Requires external quiescence: no other goroutine may touch the
// buffer while it runs. No-op when n <= Cap().
func (s *Shared[T]) Reserve(n int) {
	if n <= s.Cap() {
		return
	}
	if n > maxCapacity {
		panic(api.NewError(api.ErrCodeInvalidArgument,
			"ring: capacity out of range").WithContext("capacity", n))
	}
	start, write := s.cur.snapshot()
	size := s.cur.size(start, write)

	span := ceilPow2(uint32(n) + 1)
	fresh := sharedSlots[T](s.alloc.Allocate(int(span)))
	for i := range fresh {
		fresh[i].seq.Store(uint32(i))
	}
	for i := uint32(0); i < size; i++ {
		fresh[i].h.Store(s.cellAt(start + i).h.Load())
		fresh[i].seq.Store(i + 1)
	}
	s.alloc.Deallocate(s.cells)
	s.cells = fresh
	s.eng.arr = fresh
	s.cur.install(0, size, span, uint32(n))
}

// Clear empties the buffer: held elements are released, every cell reopens
// at its first write turn, and the tickets restart at zero. Requires
// external quiescence.
func (s *Shared[T]) Clear() {
	start, write := s.cur.snapshot()
	for t := start; t != write; t++ {
		if h := s.cellAt(t).h.Swap(nil); h != nil {
			h.Release()
		}
	}
	for i := range s.cells {
		s.cells[i].seq.Store(uint32(i))
	}
	s.cur.reset()
}

// Begin returns an iterator at the first logical element.
func (s *Shared[T]) Begin() SharedIterator[T] {
	return SharedIterator[T]{s: s}
}

// End returns an iterator one past the last logical element.
func (s *Shared[T]) End() SharedIterator[T] {
	return SharedIterator[T]{s: s, pos: s.Len()}
}

// Stats returns traffic and contention counters.
func (s *Shared[T]) Stats() SharedStats {
	return SharedStats{
		Pushes:     s.pushes.Load(),
		Pops:       s.pops.Load(),
		PopEmpty:   s.popEmpty.Load(),
		CASRetries: s.cur.retries.Load(),
		Evictions:  s.cur.evictions.Load(),
	}
}

func handleValue[T any](h *api.Handle[T]) T {
	if h == nil {
		var zero T
		return zero
	}
	return h.Value()
}

// SharedIterator walks the logical sequence of a Shared ring, yielding
// value copies. Same lazy-resync semantics as Iterator: every dereference
// re-derives the physical cell from the live cursor.
type SharedIterator[T any] struct {
	s   *Shared[T]
	pos int
}

// Value dereferences against the buffer's current state; zero value at End.
func (si SharedIterator[T]) Value() T {
	if si.pos < 0 || si.pos >= si.s.Len() {
		var zero T
		return zero
	}
	start, _ := si.s.cur.snapshot()
	return si.s.readTicket(start + uint32(si.pos))
}

// Next advances one position, clamping at End.
func (si *SharedIterator[T]) Next() {
	if si.pos < si.s.Len() {
		si.pos++
	}
}

// Prev retreats one position, clamping at Begin.
func (si *SharedIterator[T]) Prev() {
	if si.pos > 0 {
		si.pos--
	}
}

// Add returns an iterator n positions forward (n may be negative), clamped
// into [Begin, End].
func (si SharedIterator[T]) Add(n int) SharedIterator[T] {
	p := si.pos + n
	if p < 0 {
		p = 0
	}
	if size := si.s.Len(); p > size {
		p = size
	}
	return SharedIterator[T]{s: si.s, pos: p}
}

// Sub returns an iterator n positions backward, clamped.
func (si SharedIterator[T]) Sub(n int) SharedIterator[T] { return si.Add(-n) }

// Distance returns the signed logical distance to another iterator of the
// same buffer.
func (si SharedIterator[T]) Distance(other SharedIterator[T]) int {
	return si.pos - other.pos
}

// Index returns the logical offset from Begin.
func (si SharedIterator[T]) Index() int { return si.pos }

// AtEnd reports whether the iterator sits past the last element.
func (si SharedIterator[T]) AtEnd() bool { return si.pos >= si.s.Len() }

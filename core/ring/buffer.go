// File: core/ring/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Exclusive-access ring buffer variant: full sequence API, no internal
// synchronization. The caller guarantees a single accessor; pair it with
// external serialization for sequential producer/consumer use.

package ring

import (
	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/pool"
)

// Compile-time interface compliance.
var _ api.Deque[any] = (*Buffer[any])(nil)

const maxCapacity = 1<<31 - 2

// plainSlots is the exclusive-access slot array: a bare slice.
type plainSlots[T any] []T

func (p plainSlots[T]) load(i uint32) T     { return p[i] }
func (p plainSlots[T]) store(i uint32, v T) { p[i] = v }
func (p plainSlots[T]) swap(i uint32, v T) T {
	old := p[i]
	p[i] = v
	return old
}
func (p plainSlots[T]) length() uint32 { return uint32(len(p)) }

// Buffer is the exclusive-access ring variant. Elements stay readable in
// logical push order through Begin()..End() while storage wraps physically.
// Not safe for concurrent use; see Shared for the lock-free variant.
type Buffer[T any] struct {
	eng   engine[T]
	alloc api.Allocator[T]
}

// New creates a Buffer with the given logical capacity, backed by the
// default heap allocator. Panics if capacity is out of range.
func New[T any](capacity int) *Buffer[T] {
	return NewWithAllocator[T](capacity, pool.NewHeap[T]())
}

// NewWithAllocator creates a Buffer whose backing storage is managed by
// alloc. The buffer owns capacity+1 physical slots; the extra sentinel slot
// disambiguates empty from full.
func NewWithAllocator[T any](capacity int, alloc api.Allocator[T]) *Buffer[T] {
	if capacity <= 0 || capacity > maxCapacity {
		panic(api.NewError(api.ErrCodeInvalidArgument,
			"ring: capacity out of range").WithContext("capacity", capacity))
	}
	b := &Buffer[T]{alloc: alloc}
	b.eng = engine[T]{
		arr: plainSlots[T](alloc.Allocate(capacity + 1)),
		cur: &exclusiveCursor{spanv: uint32(capacity + 1)},
	}
	return b
}

// Len returns the number of elements currently held.
func (b *Buffer[T]) Len() int { return int(b.eng.size()) }

// Cap returns the logical capacity.
func (b *Buffer[T]) Cap() int { return int(b.eng.capacity()) }

// Empty reports Len() == 0.
func (b *Buffer[T]) Empty() bool { return b.Len() == 0 }

// Full reports Len() == Cap().
func (b *Buffer[T]) Full() bool { return b.Len() == b.Cap() }

// PushBack appends v at the logical end. When the buffer is full the front
// element is evicted in the same step (overwrite-oldest).
func (b *Buffer[T]) PushBack(v T) {
	b.eng.pushBack(v)
}

// PopFront removes and returns the oldest element, false if empty.
func (b *Buffer[T]) PopFront() (T, bool) { return b.eng.popFront() }

// PopBack removes and returns the newest element, false if empty.
func (b *Buffer[T]) PopBack() (T, bool) { return b.eng.popBack() }

// Front returns the oldest element, zero value when empty.
func (b *Buffer[T]) Front() T { return b.eng.front() }

// Back returns the newest element, zero value when empty.
func (b *Buffer[T]) Back() T { return b.eng.back() }

// At returns the element at logical index i, clamping i to [0, Cap()-1]
// rather than failing. Reads past Len() yield unspecified slot contents.
func (b *Buffer[T]) At(i int) T { return b.eng.at(i) }

// Insert places v at logical position pos, shifting the suffix one slot
// toward the tail. pos >= Len() is equivalent to PushBack. When the buffer
// is full the current last element is dropped instead of growing.
func (b *Buffer[T]) Insert(pos int, v T) {
	b.eng.insert(pos, v)
}

// Erase removes the element at pos, shifting the remainder down. Returns an
// iterator at the position past the removed element.
func (b *Buffer[T]) Erase(pos int) Iterator[T] {
	return b.EraseRange(pos, pos+1)
}

// EraseRange removes logical positions [first, last). A suffix erase
// retracts the write cursor directly without shifting. Returns an iterator
// past the removed range.
func (b *Buffer[T]) EraseRange(first, last int) Iterator[T] {
	pos := b.eng.eraseRange(first, last, nil)
	return Iterator[T]{eng: &b.eng, pos: pos}
}

// Reserve grows the logical capacity to at least n, preserving logical
// order: the current sequence is copied into slots 0..Len() of a fresh
// allocation and the cursor reinstalled. No-op when n <= Cap().
//
// Reserve has no internal synchronization; it must not run concurrently
// with any other operation on the same buffer.
func (b *Buffer[T]) Reserve(n int) {
	if n <= b.Cap() {
		return
	}
	size := b.eng.size()
	fresh := b.alloc.Allocate(n + 1)
	start, _ := b.eng.cur.snapshot()
	span := b.eng.cur.span()
	old := b.eng.arr.(plainSlots[T])
	for i := uint32(0); i < size; i++ {
		fresh[i] = old[physIdx(start, i, span)]
	}
	b.alloc.Deallocate(old)
	b.eng.arr = plainSlots[T](fresh)
	b.eng.cur.install(0, size, uint32(n+1), uint32(n))
}

// Clear logically empties the buffer: cursor reset only, slots are left as
// they are and reused by future writes. Must not run concurrently with any
// other operation.
func (b *Buffer[T]) Clear() {
	b.eng.cur.reset()
}

// Begin returns an iterator at the first logical element.
func (b *Buffer[T]) Begin() Iterator[T] { return Iterator[T]{eng: &b.eng} }

// End returns an iterator one past the last logical element.
func (b *Buffer[T]) End() Iterator[T] {
	return Iterator[T]{eng: &b.eng, pos: b.Len()}
}

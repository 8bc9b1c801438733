// Package api
// Author: momentics@gmail.com
//
// Bounded ring buffer contracts for cross-goroutine producer/consumer.

package api

// Queue is the minimal bounded FIFO contract shared by both ring variants.
// PushBack never fails: when the buffer is full the oldest element is
// evicted (overwrite-oldest policy).
type Queue[T any] interface {
	// PushBack appends an item at the logical end, evicting the front
	// element if the buffer is full.
	PushBack(item T)
	// PopFront removes and returns the oldest item, false if empty.
	PopFront() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns the logical buffer capacity.
	Cap() int
}

// Deque extends Queue with tail removal and O(1) inspection,
// covering every end operation both ring variants support.
type Deque[T any] interface {
	Queue[T]

	// PopBack removes and returns the newest item, false if empty.
	PopBack() (T, bool)
	// Front returns the oldest item without removing it.
	// Returns the zero value when empty; callers check Empty first.
	Front() T
	// Back returns the newest item without removing it.
	// Returns the zero value when empty; callers check Empty first.
	Back() T
	// At returns the item at logical index i. Out-of-range indices are
	// clamped to capacity-1 rather than signalling failure.
	At(i int) T
	// Empty reports Len() == 0.
	Empty() bool
	// Full reports Len() == Cap().
	Full() bool
}

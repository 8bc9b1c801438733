// File: pool/heap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Default allocator capability: plain heap slabs with accounting.

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-ring/api"
)

// Ensure compile-time interface compliance.
var _ api.StatAllocator[any] = (*Heap[any])(nil)

// Heap allocates slot arrays from the Go heap. Deallocate only updates
// accounting; reclamation is the GC's job.
type Heap[T any] struct {
	allocs atomic.Int64
	frees  atomic.Int64
}

// NewHeap creates a heap allocator for element type T.
func NewHeap[T any]() *Heap[T] { return &Heap[T]{} }

// Allocate returns a zero-valued slot array of n elements.
func (h *Heap[T]) Allocate(n int) []T {
	if n < 0 {
		panic(api.NewError(api.ErrCodeInvalidArgument,
			"pool: negative allocation size").WithContext("n", n))
	}
	h.allocs.Add(1)
	return make([]T, n)
}

// Deallocate releases a slot array. The GC handles the memory.
func (h *Heap[T]) Deallocate(slots []T) {
	h.frees.Add(1)
}

// Stats exposes allocation accounting.
func (h *Heap[T]) Stats() api.AllocatorStats {
	a, f := h.allocs.Load(), h.frees.Load()
	return api.AllocatorStats{TotalAlloc: a, TotalFree: f, InUse: a - f}
}

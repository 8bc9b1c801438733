//go:build !linux
// +build !linux

// File: pool/arena_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable arena fallback: heap-backed, same surface as the Linux arena.

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-ring/api"
)

// Ensure compile-time interface compliance.
var _ api.StatAllocator[int] = (*Arena[int])(nil)

// Arena on non-Linux platforms degrades to heap allocation.
type Arena[T any] struct {
	allocs atomic.Int64
	frees  atomic.Int64
}

// NewArena creates a heap-backed arena allocator for element type T.
func NewArena[T any]() *Arena[T] { return &Arena[T]{} }

// Allocate returns a zero-valued slot array of n elements.
func (a *Arena[T]) Allocate(n int) []T {
	if n < 0 {
		panic(api.NewError(api.ErrCodeInvalidArgument,
			"pool: negative allocation size").WithContext("n", n))
	}
	a.allocs.Add(1)
	return make([]T, n)
}

// Deallocate releases a slot array to the GC.
func (a *Arena[T]) Deallocate(slots []T) {
	a.frees.Add(1)
}

// Stats exposes allocation accounting.
func (a *Arena[T]) Stats() api.AllocatorStats {
	al, fr := a.allocs.Load(), a.frees.Load()
	return api.AllocatorStats{TotalAlloc: al, TotalFree: fr, InUse: al - fr}
}

// Close is a no-op on the heap fallback.
func (a *Arena[T]) Close() error { return nil }

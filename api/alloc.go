// File: api/alloc.go
// Author: momentics <momentics@gmail.com>
//
// Defines the allocator capability backing ring storage: pluggable slab
// acquisition and release for slot arrays.

package api

// Allocator abstracts backing-storage management for ring slots.
// Construct/destroy collapse to plain assignment and zeroing in Go;
// the capability only covers acquiring and releasing slot arrays.
type Allocator[T any] interface {
	// Allocate returns a slot array of exactly n elements, zero-valued.
	Allocate(n int) []T

	// Deallocate releases a slot array previously returned by Allocate.
	// The slice must not be used afterwards.
	Deallocate(slots []T)
}

// AllocatorStats aggregates slab allocation/reuse accounting.
type AllocatorStats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
}

// StatAllocator is an Allocator exposing accounting metrics for observability.
type StatAllocator[T any] interface {
	Allocator[T]

	// Stats exposes resource/accounting metrics.
	Stats() AllocatorStats
}

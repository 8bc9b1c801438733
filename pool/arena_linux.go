//go:build linux
// +build linux

// File: pool/arena_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux arena allocator: slot arrays carved out of anonymous mmap regions,
// page-rounded, released eagerly with munmap instead of waiting for the GC.

package pool

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-ring/api"
)

// Ensure compile-time interface compliance.
var _ api.StatAllocator[int] = (*Arena[int])(nil)

// Arena allocates slot arrays from anonymous mmap regions.
//
// Constraint: T must not contain Go pointers. The mapped memory is invisible
// to the garbage collector, so pointer fields stored there would not keep
// their referents alive. For pointerful element types use Heap.
type Arena[T any] struct {
	mu      sync.Mutex
	regions map[uintptr][]byte

	allocs atomic.Int64
	frees  atomic.Int64
}

// NewArena creates an mmap-backed arena allocator for element type T.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{regions: make(map[uintptr][]byte)}
}

// Allocate maps a fresh anonymous region sized for n elements, rounded up
// to the page size. Falls back to the heap if the mapping fails or T is
// zero-sized.
func (a *Arena[T]) Allocate(n int) []T {
	if n < 0 {
		panic(api.NewError(api.ErrCodeInvalidArgument,
			"pool: negative allocation size").WithContext("n", n))
	}
	a.allocs.Add(1)

	var zero T
	elem := int(unsafe.Sizeof(zero))
	if n == 0 || elem == 0 {
		return make([]T, n)
	}

	size := n * elem
	page := unix.Getpagesize()
	size = (size + page - 1) / page * page

	mem, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		// mapping pressure: degrade to the heap rather than failing the ring
		return make([]T, n)
	}

	base := unsafe.Pointer(&mem[0])
	a.mu.Lock()
	a.regions[uintptr(base)] = mem
	a.mu.Unlock()

	return unsafe.Slice((*T)(base), n)
}

// Deallocate unmaps the region backing slots. Heap-fallback arrays are left
// to the GC.
func (a *Arena[T]) Deallocate(slots []T) {
	a.frees.Add(1)
	if len(slots) == 0 {
		return
	}
	key := uintptr(unsafe.Pointer(&slots[0]))
	a.mu.Lock()
	mem, ok := a.regions[key]
	if ok {
		delete(a.regions, key)
	}
	a.mu.Unlock()
	if ok {
		_ = unix.Munmap(mem)
	}
}

// Stats exposes allocation accounting.
func (a *Arena[T]) Stats() api.AllocatorStats {
	al, fr := a.allocs.Load(), a.frees.Load()
	return api.AllocatorStats{TotalAlloc: al, TotalFree: fr, InUse: al - fr}
}

// Close unmaps every live region. The arena must not be used afterwards and
// no ring may still reference its storage.
func (a *Arena[T]) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	failed := 0
	for key, mem := range a.regions {
		if err := unix.Munmap(mem); err != nil {
			failed++
		}
		delete(a.regions, key)
	}
	if failed > 0 {
		return api.NewError(api.ErrCodeInternal,
			"pool: munmap failed during arena close").WithContext("regions", failed)
	}
	return nil
}

// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for hioload-ring. Implements the allocator capability that
// backs ring storage (heap and mmap-backed arena slabs) and sync.Pool-based
// recycling of reference-counted slot handles.
// See heap.go, arena_linux.go, handlepool.go for implementation details.
package pool

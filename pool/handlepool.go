// File: pool/handlepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// sync.Pool-backed recycling of reference-counted slot handles.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-ring/api"
)

// Ensure compile-time interface compliance.
var _ api.HandleSource[int] = (*HandlePool[int])(nil)

// HandlePool recycles api.Handle values through a sync.Pool. It is the
// recycler installed into every handle it hands out: the last Release on a
// handle returns it here automatically.
type HandlePool[T any] struct {
	p sync.Pool

	gets     atomic.Int64
	recycles atomic.Int64
}

// NewHandlePool creates a handle pool for element type T.
func NewHandlePool[T any]() *HandlePool[T] {
	return &HandlePool[T]{}
}

// Get returns a live handle holding v with a reference count of one.
func (hp *HandlePool[T]) Get(v T) *api.Handle[T] {
	hp.gets.Add(1)
	if x := hp.p.Get(); x != nil {
		h := x.(*api.Handle[T])
		h.Init(v, hp)
		return h
	}
	return api.NewHandle(v, hp)
}

// Recycle receives a dead handle for reuse. Called by Handle.Release.
func (hp *HandlePool[T]) Recycle(h *api.Handle[T]) {
	hp.recycles.Add(1)
	hp.p.Put(h)
}

// Stats exposes pool traffic accounting.
func (hp *HandlePool[T]) Stats() api.AllocatorStats {
	g, r := hp.gets.Load(), hp.recycles.Load()
	return api.AllocatorStats{TotalAlloc: g, TotalFree: r, InUse: g - r}
}

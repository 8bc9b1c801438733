// Package api
// Author: momentics
//
// Reference-counted slot handles for the concurrent ring variant.
//
// A handle decouples a value's lifetime from the slot it was read out of:
// the holder of a retained handle may keep using the value even after the
// origin slot has been overwritten by another accessor (longest-holder
// ownership).

package api

import "sync/atomic"

// Handle is a reference-counted wrapper around one logical slot value.
// A freshly initialized handle carries one reference, owned by whoever
// initialized it. Release drops a reference; when the count reaches zero
// the handle is handed back to its recycler for reuse.
type Handle[T any] struct {
	refs atomic.Int32
	rec  Recycler[T]
	val  T
}

// Recycler receives handles whose reference count dropped to zero.
type Recycler[T any] interface {
	// Recycle takes ownership of a dead handle for later reuse.
	Recycle(h *Handle[T])
}

// HandleSource produces live handles and recycles dead ones. A ring keeps
// one source and routes every element through it, so handles circulate
// between the ring and the source instead of hitting the heap per push.
type HandleSource[T any] interface {
	Recycler[T]

	// Get returns a handle holding v with a reference count of one.
	Get(v T) *Handle[T]
}

// NewHandle creates a handle holding v with an initial count of one.
// rec may be nil, in which case dead handles are left to the GC.
func NewHandle[T any](v T, rec Recycler[T]) *Handle[T] {
	h := &Handle[T]{rec: rec, val: v}
	h.refs.Store(1)
	return h
}

// Init re-arms a recycled handle with a new value and a count of one.
// Intended for recyclers only; the handle must be dead when called.
func (h *Handle[T]) Init(v T, rec Recycler[T]) {
	h.val = v
	h.rec = rec
	h.refs.Store(1)
}

// Value returns the wrapped value. The handle must hold at least one
// reference owned by the caller.
func (h *Handle[T]) Value() T { return h.val }

// Retain adds a reference. The caller must already hold one; retaining
// a dead handle is a contract violation.
func (h *Handle[T]) Retain() { h.refs.Add(1) }

// Release drops a reference. On the last release the value is zeroed and
// the handle goes back to its recycler. After Release the caller must not
// touch the handle again.
func (h *Handle[T]) Release() {
	if h.refs.Add(-1) != 0 {
		return
	}
	var zero T
	h.val = zero
	if h.rec != nil {
		h.rec.Recycle(h)
	}
}

// Refs returns the current reference count. Diagnostic only; the value
// may be stale by the time the caller observes it.
func (h *Handle[T]) Refs() int32 { return h.refs.Load() }

// Package api
// Author: momentics@gmail.com
//
// Generic result type for error propagation outside the ring hot path.

package api

// Result wraps any payload or error. Used by components layered on top of
// the ring (sink flushes, drains) that do carry an error channel; the ring
// operations themselves never produce one.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the result carries no error.
func (r Result[T]) Ok() bool { return r.Err == nil }

// File: core/ring/doc.go
// Package ring implements the fixed-capacity circular buffer family.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One engine, two synchronization strategies:
//
//   - Buffer[T]: exclusive-access variant. No internal synchronization;
//     the caller guarantees a single accessor (or serializes externally).
//     Full sequence API: end operations, arbitrary-position insert/erase,
//     iterators, growth via Reserve.
//
//   - Shared[T]: lock-free concurrent variant. A {start,write} ticket pair
//     is packed into one atomic word so every observer sees a mutually
//     consistent pair; all mutation goes through CAS retry loops, and each
//     cell carries a write-turn sequence that tells readers whether the
//     store behind a cursor claim has landed. Values are handed out through
//     reference-counted handles (api.Handle) so a popped value stays usable
//     after its origin cell is reused.
//
// Buffer keeps capacity+1 physical slots: the sentinel slot resolves the
// empty-versus-full ambiguity of a two-cursor ring. Shared rounds that
// count up to a power of two so its free-running tickets map to cells
// coherently across uint32 overflow. Elements are always readable in
// logical order through Begin()..End(); physical wraparound is handled
// with modulo arithmetic everywhere, never with pointer-range assumptions.
//
// Progress guarantee for Shared is lock-free, not wait-free: a CAS retry
// loop may spin indefinitely under sustained contention. This is a liveness
// risk, never a correctness one; no operation observes a torn cursor.
package ring

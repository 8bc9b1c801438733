// File: sink/doc.go
// Package sink implements an asynchronous batch drainer over a bounded ring.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Sink pairs producers pushing into a concurrent ring with one background
// writer goroutine that drains the ring in batches and hands them to a
// user handler, with adaptive backoff when idle and a bounded retry queue
// for batches the handler rejected.
//
// Backpressure is the ring's overwrite-oldest policy: producers never
// block, and a slow writer loses the oldest entries first.
package sink

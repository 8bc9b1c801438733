// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Public contracts for the hioload-ring library: bounded queue interfaces,
// the allocator capability used for backing storage, reference-counted slot
// handles for the concurrent variant, and common error types.
//
// Implementations live in core/ring and pool. All contracts are designed for
// branch-light hot paths: no operation on the queue surface returns an error.
package api

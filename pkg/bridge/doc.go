// Package bridge is the flat function table over the engine, shaped for a
// foreign-function layer: every operation returns a sentinel (zero handle,
// nil buffer or negative status) on failure and records a message in the
// calling Caller's last-error slot. No panics or Go errors cross it.
//
// Each execution context that calls into the table (an FFI thread, a
// goroutine) should own its own Caller so error messages never leak between
// callers. Buffers returned by the table are tracked by the Library and must
// be released with Caller.Free.
package bridge

// Package manager coordinates model handles for the HTTP server and the CLI.
// It sits on top of engine.Runtime and adds what a long-running service
// needs beyond the handle table:
//
//   - manager.go: Manager type, constructor, readiness and model listing.
//   - config.go: Config and package defaults.
//   - errors.go: error types and helpers (IsTooBusy, IsModelNotFound).
//   - admission.go: per-handle queueing so callers get backpressure instead
//     of waiting indefinitely on the engine's per-model lock.
//   - ops.go: load/unload and the request-level operations (tokenize,
//     generate, stream, embed) expressed in pkg/types shapes.
//
// Model files are discovered with internal/registry; ids from that listing or
// explicit paths can be loaded. Loaded models are addressed by engine handle.
package manager

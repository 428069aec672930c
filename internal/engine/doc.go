// Package engine is the session manager: it owns loaded models behind
// generation-checked handles and runs tokenization, generation and embedding
// against a backend.Backend. It is structured into small files by concern:
//
//   - runtime.go: Runtime, Config, one-time Init and the handle registry.
//   - model.go: Load, Info and Free; load-time defaults.
//   - stream.go: the streaming state machine (prompt, decode, closing, done).
//   - generate.go: blocking Generate and the push-style GenerateStream.
//   - tokenize.go, embed.go: tokenizer and embedding entry points.
//   - system.go: GPU/CPU capability reporting.
//   - errors.go: Error, Kind and IsX helpers.
//   - events.go, metrics.go: lifecycle events and prometheus collectors.
//
// Concurrency: every method is safe for concurrent use. Calls on distinct
// handles run in parallel; calls on the same handle are serialized by a
// per-model mutex, and Free waits for an in-flight call before releasing
// backend resources. Work runs on the caller's goroutine; the engine starts
// no goroutines of its own.
package engine

//go:build !llama

package llamacpp

import "llmcore/internal/backend"

// Built reports whether this binary links llama.cpp.
const Built = false

func (*Backend) Version() string { return "unavailable" }

// Load fails fast: llama runtime not available in this build.
func (*Backend) Load(path string, _ backend.LoadParams) (backend.Model, error) {
	return nil, backend.ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}

// Package llamacpp adapts go-llama.cpp to the backend contract.
//
// The real implementation is compiled with the 'llama' build tag. Without it
// the package still builds (no CGO) and every Load fails with a dependency
// unavailable error, so default binaries stay CGO-free.
//
// go-llama.cpp exposes whole-prompt prediction but not per-position logits,
// so models loaded here support tokenization and embeddings while step
// decoding reports backend.ErrUnsupported.
package llamacpp

import (
	"path/filepath"
	"strings"

	"llmcore/internal/backend"
)

// Backend implements backend.Backend on top of go-llama.cpp.
type Backend struct {
	threads int
}

// New returns the llama.cpp backend. threads is used for embedding and
// tokenization calls; values <= 0 let the library decide.
func New(threads int) *Backend { return &Backend{threads: threads} }

func (*Backend) Name() string { return "llamacpp" }

func (*Backend) Init() error { return nil }

func (*Backend) Extensions() []string { return []string{".gguf"} }

// Device reports the accelerator selected at build time.
func (*Backend) Device() backend.Device {
	return backend.Device{GPU: gpuName != "cpu", Name: gpuName}
}

const defaultContextSize = 2048

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

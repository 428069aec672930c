// Package backend defines the compute backend contract consumed by the engine.
//
// A backend owns everything numeric: model file parsing, tensor math, KV
// caches and kernel dispatch. The engine only ever sees token ids, logit
// vectors and embedding vectors through the interfaces below.
package backend

import "errors"

// ErrUnsupported is returned (possibly wrapped) by backends for operations
// they cannot perform, e.g. step decoding on a predict-only runtime.
var ErrUnsupported = errors.New("operation not supported by backend")

// dependencyUnavailableError signals that the backend was compiled without
// its native runtime (e.g. llama.cpp) so callers can report 503 instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err (or anything it wraps) is a
// missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}

// Backend loads models. Implementations must be safe for concurrent use.
type Backend interface {
	// Name is a short identifier such as "tablelm" or "llamacpp".
	Name() string
	// Version reports the engine/library version string.
	Version() string
	// Init performs process-wide setup. The engine calls it exactly once.
	Init() error
	// Load opens a model file. The returned model owns all backend resources.
	Load(path string, params LoadParams) (Model, error)
	// Device describes the accelerator this backend dispatches to.
	Device() Device
	// Extensions lists model file extensions this backend can load (lower case, with dot).
	Extensions() []string
}

// LoadParams are resolved load parameters; the engine applies defaults first.
type LoadParams struct {
	GPULayers int
	UseMmap   bool
	// ContextSize and BatchSize are the caller's requested values (0 = model
	// default). Backends that size their context at load time read them here.
	ContextSize int
	BatchSize   int
}

// Model is a loaded model. It is not required to be safe for concurrent use;
// the engine serializes access per model.
type Model interface {
	Metadata() Metadata
	// Tokenize converts text to token ids, optionally adding BOS/special tokens.
	Tokenize(text string, addSpecial bool) ([]int32, error)
	// TokenPiece renders a single token, special tokens included.
	TokenPiece(token int32) (string, error)
	// IsEndOfGeneration reports whether token terminates generation.
	IsEndOfGeneration(token int32) bool
	// NewContext creates the single inference context owned by this model.
	NewContext(params ContextParams) (Context, error)
	Close() error
}

// ContextParams configure an inference context.
type ContextParams struct {
	ContextSize int
	BatchSize   int
	Threads     int
	Embeddings  bool
}

// Context is the running inference state: position cursor plus any cache.
type Context interface {
	// Decode appends tokens at the current position and computes logits for
	// the last one. It fails when the batch would exceed the context window.
	Decode(tokens []int32) error
	// Logits returns next-position logits after a successful Decode. The
	// returned slice may be reused by the backend; callers copy before mutating.
	Logits() []float32
	// Encode runs the embedding path over tokens and returns a vector of
	// Metadata().EmbeddingSize floats.
	Encode(tokens []int32) ([]float32, error)
	// Reset clears the cache and rewinds the position cursor to zero.
	Reset()
	Close() error
}

// Metadata is the read-only description of a loaded model.
type Metadata struct {
	Name              string
	Architecture      string
	Quantization      string
	TrainContextSize  int
	VocabSize         int
	EmbeddingSize     int
	LayerCount        int
	HeadCount         int
	ParameterCount    int64
	FileSizeBytes     int64
	SupportsEmbedding bool
	SupportsVision    bool
	ChatTemplate      string
}

// Device describes GPU support of a backend build.
type Device struct {
	GPU       bool
	Name      string // metal, cuda, vulkan or cpu
	VRAMBytes int64
}

// CPU is the device reported by CPU-only backends.
var CPU = Device{GPU: false, Name: "cpu"}

package engine

import (
	"fmt"
	"strconv"
)

// Handle identifies a loaded model. The zero value is the null handle.
// The low 32 bits hold slot index + 1, the high 32 bits a generation counter
// that is bumped whenever the slot is freed, so stale handles never validate.
type Handle uint64

func (h Handle) slot() int { return int(uint32(h)) - 1 }

func (h Handle) generation() uint32 { return uint32(h >> 32) }

func makeHandle(slot int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(slot+1)))
}

func (h Handle) String() string { return fmt.Sprintf("%#x", uint64(h)) }

// ParseHandle accepts the String form ("0x100000001") as well as plain
// decimal.
func ParseHandle(s string) (Handle, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, newError(InvalidHandle, "parse_handle", "malformed model handle "+strconv.Quote(s), err)
	}
	return Handle(v), nil
}

// LoadOptions are the caller's load parameters. Non-positive values select
// the defaults documented on each field.
type LoadOptions struct {
	ContextSize int // <=0: model's trained maximum; never exceeds it
	GPULayers   int // <0: all layers; 0: CPU only
	Threads     int // <=0: derived from the core count
	BatchSize   int // <=0: 512
	UseMmap     bool
}

// ModelInfo is a read-only snapshot of a loaded model.
type ModelInfo struct {
	Handle            Handle
	Path              string
	Name              string
	Architecture      string
	Quantization      string
	ContextSize       int
	TrainContextSize  int
	VocabSize         int
	EmbeddingSize     int
	LayerCount        int
	HeadCount         int
	ParameterCount    int64
	FileSizeBytes     int64
	Threads           int
	BatchSize         int
	GPULayers         int
	SupportsEmbedding bool
	SupportsVision    bool
	ChatTemplate      string
}

// FinishReason explains why generation ended. Values match the numeric
// codes of the flat function table.
type FinishReason int32

const (
	FinishStop   FinishReason = 0
	FinishLength FinishReason = 1
	FinishError  FinishReason = 2
)

func (r FinishReason) String() string {
	switch r {
	case FinishStop:
		return "stop"
	case FinishLength:
		return "length"
	case FinishError:
		return "error"
	}
	return fmt.Sprintf("FinishReason(%d)", int32(r))
}

// GenerateOptions bound a single generate or stream call.
type GenerateOptions struct {
	MaxTokens         int
	Temperature       float32
	TopP              float32
	TopK              int
	MinP              float32
	RepetitionPenalty float32
	Seed              int64
}

// Result is the outcome of a blocking Generate.
type Result struct {
	Tokens       []int32
	FinishReason FinishReason
}

// Chunk is one streaming delivery. Non-final chunks carry an accepted token
// and its text; the final chunk carries the finish reason and, for a stop,
// the terminal token.
type Chunk struct {
	Token  int32
	Text   string
	Final  bool
	Reason FinishReason
}

//go:build llama

package llamacpp

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"llmcore/internal/backend"
)

// Built reports whether this binary links llama.cpp.
const Built = true

func (*Backend) Version() string { return "go-llama.cpp" }

// Load opens a GGUF file. Embeddings are always enabled so the same handle
// serves both tokenize and embed requests.
func (b *Backend) Load(path string, params backend.LoadParams) (backend.Model, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	ctxSize := params.ContextSize
	if ctxSize <= 0 {
		ctxSize = defaultContextSize
	}
	mo := []llama.ModelOption{
		llama.SetContext(ctxSize),
		llama.SetGPULayers(params.GPULayers),
		llama.SetMMap(params.UseMmap),
		llama.EnableEmbeddings,
	}
	if params.BatchSize > 0 {
		mo = append(mo, llama.SetNBatch(params.BatchSize))
	}
	l, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaModel{
		l:       l,
		threads: b.threads,
		meta: backend.Metadata{
			Name:              baseName(path),
			TrainContextSize:  ctxSize,
			FileSizeBytes:     st.Size(),
			SupportsEmbedding: true,
		},
	}, nil
}

// llamaModel owns the loaded model; go-llama.cpp keeps the context inside it.
type llamaModel struct {
	mu      sync.Mutex
	l       *llama.LLama
	threads int
	meta    backend.Metadata
}

func (m *llamaModel) Metadata() backend.Metadata { return m.meta }

func (m *llamaModel) predictOptions() []llama.PredictOption {
	if m.threads > 0 {
		return []llama.PredictOption{llama.SetThreads(m.threads)}
	}
	return nil
}

// Tokenize always lets llama.cpp add BOS; go-llama.cpp offers no switch.
func (m *llamaModel) Tokenize(text string, _ bool) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l == nil {
		return nil, errors.New("llama model not initialized")
	}
	n, toks, err := m.l.TokenizeString(text, m.predictOptions()...)
	if err != nil {
		return nil, err
	}
	if int(n) < len(toks) {
		toks = toks[:n]
	}
	return toks, nil
}

func (m *llamaModel) TokenPiece(int32) (string, error) {
	return "", fmt.Errorf("token pieces: %w", backend.ErrUnsupported)
}

func (m *llamaModel) IsEndOfGeneration(int32) bool { return false }

func (m *llamaModel) NewContext(backend.ContextParams) (backend.Context, error) {
	return &llamaContext{m: m}, nil
}

func (m *llamaModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l != nil {
		m.l.Free()
		m.l = nil
	}
	return nil
}

type llamaContext struct{ m *llamaModel }

func (c *llamaContext) Decode([]int32) error {
	return fmt.Errorf("step decode: %w", backend.ErrUnsupported)
}

func (c *llamaContext) Logits() []float32 { return nil }

func (c *llamaContext) Encode(tokens []int32) ([]float32, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.m.l == nil {
		return nil, errors.New("llama model not initialized")
	}
	ids := make([]int, len(tokens))
	for i, t := range tokens {
		ids[i] = int(t)
	}
	return c.m.l.TokenEmbeddings(ids, c.m.predictOptions()...)
}

func (c *llamaContext) Reset() {}

func (c *llamaContext) Close() error { return nil }

package engine

import (
	"errors"
	"sync/atomic"
	"testing"

	"llmcore/internal/backend"
)

const fakeVocab = 256

// fakeBackend is an in-memory backend whose tokens are bytes. After the i-th
// Decode the logits favor script[i] (the last entry repeats).
type fakeBackend struct {
	meta          backend.Metadata
	device        backend.Device
	loadErr       error
	ctxErr        error
	initErr       error
	script        []int32
	failDecodeAt  int // 1-based Decode call that fails; 0 never
	panicDecodeAt int // 1-based Decode call that panics; 0 never
	embedding     []float32
	encodeErr     error
	pieceErr      error

	initCalls   atomic.Int32
	decodeCalls atomic.Int32
	resets      atomic.Int32
	closedCtx   atomic.Int32
	closedModel atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		meta: backend.Metadata{
			TrainContextSize:  128,
			VocabSize:         fakeVocab,
			EmbeddingSize:     3,
			SupportsEmbedding: true,
		},
		script:    []int32{'a'},
		embedding: []float32{3, 0, 4},
	}
}

func (b *fakeBackend) Name() string    { return "fake" }
func (b *fakeBackend) Version() string { return "fake/1" }

func (b *fakeBackend) Init() error {
	b.initCalls.Add(1)
	return b.initErr
}

func (b *fakeBackend) Device() backend.Device { return b.device }

func (b *fakeBackend) Extensions() []string { return []string{".fake"} }

func (b *fakeBackend) Load(path string, _ backend.LoadParams) (backend.Model, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return &fakeModel{b: b}, nil
}

type fakeModel struct{ b *fakeBackend }

func (m *fakeModel) Metadata() backend.Metadata { return m.b.meta }

func (m *fakeModel) Tokenize(text string, addSpecial bool) ([]int32, error) {
	var out []int32
	if addSpecial {
		out = append(out, 1) // BOS
	}
	for i := 0; i < len(text); i++ {
		out = append(out, int32(text[i]))
	}
	return out, nil
}

func (m *fakeModel) TokenPiece(t int32) (string, error) {
	if m.b.pieceErr != nil {
		return "", m.b.pieceErr
	}
	if t < 0 || t >= fakeVocab {
		return "", errors.New("out of range")
	}
	return string([]byte{byte(t)}), nil
}

// IsEndOfGeneration treats NUL as the terminal token.
func (m *fakeModel) IsEndOfGeneration(t int32) bool { return t == 0 }

func (m *fakeModel) NewContext(p backend.ContextParams) (backend.Context, error) {
	if m.b.ctxErr != nil {
		return nil, m.b.ctxErr
	}
	return &fakeContext{b: m.b, nctx: p.ContextSize, logits: make([]float32, fakeVocab)}, nil
}

func (m *fakeModel) Close() error {
	m.b.closedModel.Add(1)
	return nil
}

type fakeContext struct {
	b      *fakeBackend
	nctx   int
	pos    int
	n      int
	logits []float32
}

func (c *fakeContext) Decode(tokens []int32) error {
	call := int(c.b.decodeCalls.Add(1))
	if c.b.failDecodeAt == call {
		return errors.New("decode failed")
	}
	if c.b.panicDecodeAt == call {
		panic("decode exploded")
	}
	if c.pos+len(tokens) > c.nctx {
		return errors.New("context window exceeded")
	}
	c.pos += len(tokens)
	next := c.b.script[min(c.n, len(c.b.script)-1)]
	c.n++
	clear(c.logits)
	c.logits[next] = 10
	return nil
}

func (c *fakeContext) Logits() []float32 { return c.logits }

func (c *fakeContext) Encode([]int32) ([]float32, error) {
	if c.b.encodeErr != nil {
		return nil, c.b.encodeErr
	}
	return c.b.embedding, nil
}

func (c *fakeContext) Reset() {
	c.b.resets.Add(1)
	c.pos, c.n = 0, 0
}

func (c *fakeContext) Close() error {
	c.b.closedCtx.Add(1)
	return nil
}

// newRuntime returns an initialized runtime over b.
func newRuntime(t *testing.T, b backend.Backend) *Runtime {
	t.Helper()
	r := New(Config{Backend: b})
	if err := r.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func mustLoad(t *testing.T, r *Runtime, opts LoadOptions) Handle {
	t.Helper()
	h, err := r.Load("/models/fake.fake", opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return h
}

// greedy returns options that always pick the favored token.
func greedy(maxTokens int) GenerateOptions {
	return GenerateOptions{MaxTokens: maxTokens, Temperature: 0, TopK: 1, TopP: 1, Seed: 42}
}

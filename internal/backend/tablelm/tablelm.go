// Package tablelm is a pure-Go reference backend.
//
// A table language model is a vocabulary plus a bigram weight table read from
// a small manifest file. It produces deterministic logits and embeddings, which
// makes it useful for tests, demos and running the server without a native
// inference engine.
package tablelm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"llmcore/internal/backend"
)

// Version of the manifest format understood by this backend.
const Version = "tablelm/1"

// Backend implements backend.Backend.
type Backend struct{}

// New returns the table language model backend.
func New() *Backend { return &Backend{} }

func (*Backend) Name() string { return "tablelm" }

func (*Backend) Version() string { return Version }

func (*Backend) Init() error { return nil }

func (*Backend) Device() backend.Device { return backend.CPU }

func (*Backend) Extensions() []string { return append([]string(nil), Extensions...) }

// Load reads and validates a manifest and builds the model tables.
func (*Backend) Load(path string, params backend.LoadParams) (backend.Model, error) {
	data, size, release, err := readModelFile(path, params.UseMmap)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer release()
	mf, err := decodeManifest(path, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := mf.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return newModel(path, size, mf), nil
}

type model struct {
	meta    backend.Metadata
	pieces  []string
	ids     map[string]int32
	maxLen  int
	bos     int32
	unk     int32
	eog     map[int32]struct{}
	bigrams map[int32]map[int32]float32
	noise   float32
	closed  bool
}

// newModel copies everything out of mf; the manifest may alias a mapping
// that is released after Load returns.
func newModel(path string, size int64, mf Manifest) *model {
	m := &model{
		pieces:  make([]string, len(mf.Vocab)),
		ids:     make(map[string]int32, len(mf.Vocab)),
		bos:     -1,
		unk:     -1,
		eog:     make(map[int32]struct{}, len(mf.EOG)),
		bigrams: make(map[int32]map[int32]float32, len(mf.Bigrams)),
		noise:   mf.Noise,
	}
	for i, p := range mf.Vocab {
		p = strings.Clone(p)
		m.pieces[i] = p
		m.ids[p] = int32(i)
		if len(p) > m.maxLen {
			m.maxLen = len(p)
		}
	}
	if mf.BOS != "" {
		m.bos = m.ids[mf.BOS]
	}
	if mf.Unknown != "" {
		m.unk = m.ids[mf.Unknown]
	}
	for _, p := range mf.EOG {
		m.eog[m.ids[p]] = struct{}{}
	}
	for prev, next := range mf.Bigrams {
		row := make(map[int32]float32, len(next))
		for p, w := range next {
			row[m.ids[p]] = w
		}
		m.bigrams[m.ids[prev]] = row
	}
	name := strings.Clone(mf.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	arch := mf.Architecture
	if arch == "" {
		arch = "bigram"
	}
	v := int64(len(m.pieces))
	m.meta = backend.Metadata{
		Name:              name,
		Architecture:      strings.Clone(arch),
		Quantization:      strings.Clone(mf.Quantization),
		TrainContextSize:  mf.ContextLength,
		VocabSize:         len(m.pieces),
		EmbeddingSize:     mf.EmbeddingLength,
		LayerCount:        mf.Layers,
		HeadCount:         mf.Heads,
		ParameterCount:    v*v + v*int64(mf.EmbeddingLength),
		FileSizeBytes:     size,
		SupportsEmbedding: mf.Embedding,
		SupportsVision:    mf.Vision,
		ChatTemplate:      strings.Clone(mf.ChatTemplate),
	}
	return m
}

func (m *model) Metadata() backend.Metadata { return m.meta }

// Tokenize performs greedy longest-match segmentation over the vocabulary.
// Bytes no piece covers map to the unknown token (one rune at a time), or
// fail when the model has none. Rendering ids and tokenizing the text again
// only reproduces segmentations the greedy match would have chosen itself.
func (m *model) Tokenize(text string, addSpecial bool) ([]int32, error) {
	if m.closed {
		return nil, errors.New("model is closed")
	}
	out := make([]int32, 0, len(text)/2+1)
	if addSpecial && m.bos >= 0 {
		out = append(out, m.bos)
	}
	for i := 0; i < len(text); {
		n := min(m.maxLen, len(text)-i)
		matched := false
		for ; n > 0; n-- {
			if id, ok := m.ids[text[i:i+n]]; ok {
				out = append(out, id)
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if m.unk < 0 {
			return nil, fmt.Errorf("no vocab piece covers byte offset %d", i)
		}
		_, w := utf8.DecodeRuneInString(text[i:])
		out = append(out, m.unk)
		i += w
	}
	return out, nil
}

func (m *model) TokenPiece(token int32) (string, error) {
	if token < 0 || int(token) >= len(m.pieces) {
		return "", fmt.Errorf("token %d out of range [0,%d)", token, len(m.pieces))
	}
	return m.pieces[token], nil
}

func (m *model) IsEndOfGeneration(token int32) bool {
	_, ok := m.eog[token]
	return ok
}

func (m *model) NewContext(params backend.ContextParams) (backend.Context, error) {
	if m.closed {
		return nil, errors.New("model is closed")
	}
	n := params.ContextSize
	if n <= 0 || n > m.meta.TrainContextSize {
		n = m.meta.TrainContextSize
	}
	return &tableContext{
		m:       m,
		nCtx:    n,
		history: make([]int32, 0, min(n, 512)),
		logits:  make([]float32, len(m.pieces)),
	}, nil
}

func (m *model) Close() error {
	m.closed = true
	return nil
}

// hashUnit maps (a, b, salt) to a deterministic value in [-1, 1].
func hashUnit(a, b int32, salt uint32) float32 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(a))
	binary.LittleEndian.PutUint32(buf[4:], uint32(b))
	binary.LittleEndian.PutUint32(buf[8:], salt)
	h := xxhash.Sum64(buf[:])
	return float32(h>>11)/float32(1<<53)*2 - 1
}

const (
	saltLogits    = 0x6c6f6769
	saltEmbedding = 0x656d6264
)

type tableContext struct {
	m       *model
	nCtx    int
	history []int32
	logits  []float32
	ready   bool
	closed  bool
}

func (c *tableContext) Decode(tokens []int32) error {
	if c.closed {
		return errors.New("context is closed")
	}
	if len(tokens) == 0 {
		return errors.New("empty batch")
	}
	if len(c.history)+len(tokens) > c.nCtx {
		return fmt.Errorf("context window exceeded: %d + %d > %d", len(c.history), len(tokens), c.nCtx)
	}
	v := int32(len(c.m.pieces))
	for _, t := range tokens {
		if t < 0 || t >= v {
			return fmt.Errorf("token %d out of range [0,%d)", t, v)
		}
	}
	c.history = append(c.history, tokens...)
	c.fillLogits(tokens[len(tokens)-1])
	return nil
}

func (c *tableContext) fillLogits(prev int32) {
	for j := range c.logits {
		c.logits[j] = c.m.noise * hashUnit(prev, int32(j), saltLogits)
	}
	for j, w := range c.m.bigrams[prev] {
		c.logits[j] += w
	}
	c.ready = true
}

func (c *tableContext) Logits() []float32 {
	if !c.ready {
		return nil
	}
	return c.logits
}

// Encode returns the mean of per-token hashed vectors.
func (c *tableContext) Encode(tokens []int32) ([]float32, error) {
	if c.closed {
		return nil, errors.New("context is closed")
	}
	if !c.m.meta.SupportsEmbedding {
		return nil, backend.ErrUnsupported
	}
	if len(tokens) == 0 {
		return nil, errors.New("empty batch")
	}
	if len(tokens) > c.nCtx {
		return nil, fmt.Errorf("context window exceeded: %d > %d", len(tokens), c.nCtx)
	}
	dim := c.m.meta.EmbeddingSize
	out := make([]float32, dim)
	v := int32(len(c.m.pieces))
	for _, t := range tokens {
		if t < 0 || t >= v {
			return nil, fmt.Errorf("token %d out of range [0,%d)", t, v)
		}
		for d := 0; d < dim; d++ {
			out[d] += hashUnit(t, int32(d), saltEmbedding)
		}
	}
	inv := 1 / float32(len(tokens))
	for d := range out {
		out[d] *= inv
	}
	return out, nil
}

func (c *tableContext) Reset() {
	c.history = c.history[:0]
	c.ready = false
}

func (c *tableContext) Close() error {
	c.closed = true
	c.history = nil
	return nil
}

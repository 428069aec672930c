package bridge

import (
	"bytes"
	"unicode/utf8"

	"llmcore/internal/engine"
)

// ModelInfoRecord is the fixed-layout model description. String fields are
// NUL-terminated and truncated at a UTF-8 boundary when they do not fit.
type ModelInfoRecord struct {
	Name              [256]byte
	Architecture      [64]byte
	Quantization      [32]byte
	ParameterCount    int64
	ContextSize       int32
	VocabularySize    int32
	EmbeddingSize     int32
	LayerCount        int32
	HeadCount         int32
	FileSizeBytes     int64
	SupportsEmbedding bool
	SupportsVision    bool
	ChatTemplate      [4096]byte
}

func (b *ModelInfoRecord) release() { *b = ModelInfoRecord{} }

func (b *ModelInfoRecord) isNil() bool { return b == nil }

func (b *ModelInfoRecord) NameString() string { return cstring(b.Name[:]) }

func (b *ModelInfoRecord) ArchitectureString() string { return cstring(b.Architecture[:]) }

func (b *ModelInfoRecord) QuantizationString() string { return cstring(b.Quantization[:]) }

func (b *ModelInfoRecord) ChatTemplateString() string { return cstring(b.ChatTemplate[:]) }

func newInfoRecord(in engine.ModelInfo) *ModelInfoRecord {
	rec := &ModelInfoRecord{
		ParameterCount:    in.ParameterCount,
		ContextSize:       int32(in.ContextSize),
		VocabularySize:    int32(in.VocabSize),
		EmbeddingSize:     int32(in.EmbeddingSize),
		LayerCount:        int32(in.LayerCount),
		HeadCount:         int32(in.HeadCount),
		FileSizeBytes:     in.FileSizeBytes,
		SupportsEmbedding: in.SupportsEmbedding,
		SupportsVision:    in.SupportsVision,
	}
	putCString(rec.Name[:], in.Name)
	putCString(rec.Architecture[:], in.Architecture)
	putCString(rec.Quantization[:], in.Quantization)
	putCString(rec.ChatTemplate[:], in.ChatTemplate)
	return rec
}

// putCString copies s into dst, leaving room for the terminating NUL and never
// splitting a multi-byte rune.
func putCString(dst []byte, s string) {
	if limit := len(dst) - 1; len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	n := copy(dst, s)
	dst[n] = 0
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

package bridge

import (
	"errors"
	"sync"
)

// Buffer is any caller-owned value returned by the function table.
type Buffer interface {
	release()
	isNil() bool
}

// TokenArray is returned by Tokenize.
type TokenArray struct {
	Tokens []int32
}

// Text is returned by Detokenize.
type Text struct {
	Value string
}

// GenerateResult is returned by Generate. FinishReason is 0 stop, 1 length
// or 2 error.
type GenerateResult struct {
	Tokens       []int32
	FinishReason int32
}

// Embedding is returned by Embed.
type Embedding struct {
	Values    []float32
	Dimension int32
}

func (b *TokenArray) release() { b.Tokens = nil }

func (b *TokenArray) isNil() bool { return b == nil }

func (b *Text) release() { b.Value = "" }

func (b *Text) isNil() bool { return b == nil }

func (b *GenerateResult) release() { b.Tokens, b.FinishReason = nil, 0 }

func (b *GenerateResult) isNil() bool { return b == nil }

func (b *Embedding) release() { b.Values, b.Dimension = nil, 0 }

func (b *Embedding) isNil() bool { return b == nil }

var errUnknownBuffer = errors.New("buffer was not returned by this library or was already freed")

// ledger tracks outstanding buffers so Free is symmetric and double frees are
// detected.
type ledger struct {
	mu   sync.Mutex
	live map[Buffer]struct{}
}

func newLedger() *ledger { return &ledger{live: make(map[Buffer]struct{})} }

func (l *ledger) track(b Buffer) {
	l.mu.Lock()
	l.live[b] = struct{}{}
	l.mu.Unlock()
}

func (l *ledger) release(b Buffer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.live[b]; !ok {
		return errUnknownBuffer
	}
	delete(l.live, b)
	b.release()
	return nil
}

func (l *ledger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

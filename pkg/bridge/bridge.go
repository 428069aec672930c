package bridge

import (
	"context"
	"fmt"
	"sync"

	"llmcore/internal/engine"
)

// Handle identifies a loaded model; 0 is the null handle.
type Handle = engine.Handle

// Stream status codes returned by GenerateStream.
const (
	StatusOK            int32 = 0
	StatusInvalid       int32 = -1
	StatusPromptFailure int32 = -2
	StatusDecodeFailure int32 = -3
)

// FinishNone is passed to a StreamCallback for non-final tokens.
const FinishNone int32 = -1

// StreamCallback receives each streamed token. finishReason is FinishNone
// unless isFinal is set. Returning false stops generation; one closing
// callback still follows.
type StreamCallback func(token int32, text string, isFinal bool, finishReason int32, userData any) bool

// Library binds the function table to one runtime and tracks the buffers it
// hands out.
type Library struct {
	rt      *engine.Runtime
	buffers *ledger
}

// New wraps rt. Init is not called; callers do that through the table.
func New(rt *engine.Runtime) *Library {
	return &Library{rt: rt, buffers: newLedger()}
}

// Outstanding reports how many returned buffers have not been freed.
func (l *Library) Outstanding() int { return l.buffers.len() }

// NewCaller returns a function table with its own last-error slot.
func (l *Library) NewCaller() *Caller { return &Caller{lib: l} }

// Caller is the function table as seen from one execution context.
type Caller struct {
	lib *Library

	mu      sync.Mutex
	lastErr string
}

// record sets the error slot from err; nil clears it.
func (c *Caller) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.lastErr = ""
		return
	}
	c.lastErr = err.Error()
}

// GetLastError returns the message of the last failed call, or "".
func (c *Caller) GetLastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError empties the error slot.
func (c *Caller) ClearError() { c.record(nil) }

func (c *Caller) rt() *engine.Runtime { return c.lib.rt }

// Init initializes the runtime. It returns 0 on success, every time it is
// called, and -1 if backend setup failed.
func (c *Caller) Init() int32 {
	if err := c.rt().Init(); err != nil {
		c.record(err)
		return -1
	}
	c.record(nil)
	return 0
}

func (c *Caller) Version() string { return c.rt().Version() }

func (c *Caller) BackendVersion() string { return c.rt().BackendVersion() }

// LoadModel returns the new handle, or 0 on failure.
func (c *Caller) LoadModel(path string, contextSize, gpuLayers, threads, batchSize int32, useMmap bool) Handle {
	h, err := c.rt().Load(path, engine.LoadOptions{
		ContextSize: int(contextSize),
		GPULayers:   int(gpuLayers),
		Threads:     int(threads),
		BatchSize:   int(batchSize),
		UseMmap:     useMmap,
	})
	c.record(err)
	return h
}

// FreeModel releases h. Freeing the null handle is a no-op.
func (c *Caller) FreeModel(h Handle) {
	c.record(c.rt().Free(h))
}

// GetModelInfo returns a fixed-layout snapshot, or nil on failure.
func (c *Caller) GetModelInfo(h Handle) *ModelInfoRecord {
	info, err := c.rt().Info(h)
	c.record(err)
	if err != nil {
		return nil
	}
	rec := newInfoRecord(info)
	c.lib.buffers.track(rec)
	return rec
}

// Tokenize returns the token ids for text, or nil on failure.
func (c *Caller) Tokenize(h Handle, text string, addSpecial bool) *TokenArray {
	toks, err := c.rt().Tokenize(h, text, addSpecial)
	c.record(err)
	if err != nil {
		return nil
	}
	out := &TokenArray{Tokens: toks}
	c.lib.buffers.track(out)
	return out
}

// Detokenize renders tokens as text, or returns nil on failure.
func (c *Caller) Detokenize(h Handle, tokens []int32) *Text {
	s, err := c.rt().Detokenize(h, tokens)
	c.record(err)
	if err != nil {
		return nil
	}
	out := &Text{Value: s}
	c.lib.buffers.track(out)
	return out
}

func generateOptions(maxTokens int32, temperature, topP float32, topK int32, minP, repetitionPenalty float32, seed int32) engine.GenerateOptions {
	return engine.GenerateOptions{
		MaxTokens:         int(maxTokens),
		Temperature:       temperature,
		TopP:              topP,
		TopK:              int(topK),
		MinP:              minP,
		RepetitionPenalty: repetitionPenalty,
		Seed:              int64(seed),
	}
}

// Generate runs a blocking generation, returning nil on failure. A decode
// failure mid-generation is not a failure: the result carries the tokens so
// far and finish reason 2.
func (c *Caller) Generate(h Handle, prompt []int32, maxTokens int32, temperature, topP float32, topK int32, minP, repetitionPenalty float32, seed int32) *GenerateResult {
	res, err := c.rt().Generate(context.Background(), h, prompt,
		generateOptions(maxTokens, temperature, topP, topK, minP, repetitionPenalty, seed))
	c.record(err)
	if err != nil {
		return nil
	}
	out := &GenerateResult{Tokens: res.Tokens, FinishReason: int32(res.FinishReason)}
	c.lib.buffers.track(out)
	return out
}

// GenerateStream delivers tokens to sink on the calling goroutine and
// returns a Status code. A panic raised by sink is recovered, recorded and
// reported as StatusInvalid; the model is released either way.
func (c *Caller) GenerateStream(h Handle, prompt []int32, maxTokens int32, temperature, topP float32, topK int32, minP, repetitionPenalty float32, seed int32, sink StreamCallback, userData any) (status int32) {
	if sink == nil || len(prompt) == 0 {
		c.record(&engine.Error{Kind: engine.InvalidArgument, Op: "stream", Msg: "prompt and sink are required"})
		return StatusInvalid
	}
	defer func() {
		if p := recover(); p != nil {
			c.record(&engine.Error{Kind: engine.InvalidArgument, Op: "stream", Msg: fmt.Sprintf("stream callback panicked: %v", p)})
			status = StatusInvalid
		}
	}()
	err := c.rt().GenerateStream(context.Background(), h, prompt,
		generateOptions(maxTokens, temperature, topP, topK, minP, repetitionPenalty, seed),
		func(ch engine.Chunk) bool {
			reason := FinishNone
			if ch.Final {
				reason = int32(ch.Reason)
			}
			return sink(ch.Token, ch.Text, ch.Final, reason, userData)
		})
	c.record(err)
	switch {
	case err == nil:
		return StatusOK
	case engine.IsPromptProcessingError(err):
		return StatusPromptFailure
	case engine.IsDecodeError(err):
		return StatusDecodeFailure
	}
	return StatusInvalid
}

// Embed returns the embedding of tokens, or nil on failure.
func (c *Caller) Embed(h Handle, tokens []int32, normalize bool) *Embedding {
	vec, err := c.rt().Embed(h, tokens, normalize)
	c.record(err)
	if err != nil {
		return nil
	}
	out := &Embedding{Values: vec, Dimension: int32(len(vec))}
	c.lib.buffers.track(out)
	return out
}

func (c *Caller) HasGPUSupport() bool { return c.rt().HasGPUSupport() }

func (c *Caller) GPUBackendName() string { return c.rt().GPUBackendName() }

func (c *Caller) VRAMSize() int64 { return c.rt().VRAMSize() }

// Free releases a buffer returned by this library. Freeing nil is a no-op;
// freeing a buffer twice, or one this library did not return, fails with an
// invalid argument error and leaves the buffer untouched.
func (c *Caller) Free(buf Buffer) {
	if buf == nil || buf.isNil() {
		c.record(nil)
		return
	}
	if err := c.lib.buffers.release(buf); err != nil {
		c.record(&engine.Error{Kind: engine.InvalidArgument, Op: "free", Msg: "cannot free buffer", Err: err})
		return
	}
	c.record(nil)
}

package engine

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llmcore/internal/sampler"
)

type streamState int

const (
	statePrompt streamState = iota
	stateDecode
	stateClosing
	stateDone
)

// Stream is a pull iterator over one generation. It holds the model's mutex
// from creation until the final chunk has been produced, so a Stream must
// be drained (or ranged over with All) or the handle stays busy.
//
// Stream is not safe for concurrent use; Cancel may only be called from the
// goroutine that calls Next.
type Stream struct {
	r    *Runtime
	m    *model
	ctx  context.Context
	mode string
	log  zerolog.Logger

	prompt  []int32
	max     int
	history []int32
	tokens  []int32

	state   streamState
	pending bool // last token accepted but not yet fed to the context
	last    int32
	stop    bool
	reason  FinishReason
	err     error

	start   time.Time
	release sync.Once
}

// Stream starts a generation over prompt. Argument and handle errors are
// returned here; prompt and decode failures surface through Err once Next
// reports false.
func (r *Runtime) Stream(ctx context.Context, h Handle, prompt []int32, opts GenerateOptions) (*Stream, error) {
	return r.newStream(ctx, "stream", h, prompt, opts)
}

func (r *Runtime) newStream(ctx context.Context, mode string, h Handle, prompt []int32, opts GenerateOptions) (*Stream, error) {
	op := mode
	if err := r.checkInit(op); err != nil {
		return nil, err
	}
	if len(prompt) == 0 {
		return nil, countError(newError(InvalidArgument, op, "prompt is empty", nil))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := r.acquire(op, h)
	if err != nil {
		return nil, err
	}
	cfg := sampler.Config{
		Temperature:       opts.Temperature,
		TopP:              opts.TopP,
		TopK:              opts.TopK,
		MinP:              opts.MinP,
		RepetitionPenalty: opts.RepetitionPenalty,
		Seed:              opts.Seed,
	}
	m.sampler = sampler.New(cfg)

	history := make([]int32, len(prompt), len(prompt)+max(opts.MaxTokens, 0))
	copy(history, prompt)
	s := &Stream{
		r:       r,
		m:       m,
		ctx:     ctx,
		mode:    mode,
		prompt:  history[:len(prompt):len(prompt)],
		max:     opts.MaxTokens,
		history: history,
		start:   time.Now(),
		log: r.log.With().
			Str("session", uuid.NewString()).
			Str("handle", h.String()).
			Str("mode", mode).
			Logger(),
	}
	s.log.Debug().Int("prompt_tokens", len(prompt)).Int("max_tokens", opts.MaxTokens).Msg("generation started")
	return s, nil
}

// Next advances the state machine and returns the next chunk. It returns
// false once the stream is finished; Err then reports the failure, if any.
func (s *Stream) Next() (Chunk, bool) {
	for {
		switch s.state {
		case statePrompt:
			// Each call starts from position 0.
			s.m.ctx.Reset()
			if err := s.m.ctx.Decode(s.prompt); err != nil {
				s.err = countError(newError(PromptProcessingError, s.mode, "failed to process prompt", err))
				s.reason = FinishError
				s.finish()
				return Chunk{}, false
			}
			s.state = stateDecode

		case stateDecode:
			if s.stop {
				s.close(FinishLength)
				continue
			}
			if err := s.ctx.Err(); err != nil {
				s.err = err
				s.close(FinishLength)
				continue
			}
			if s.pending {
				s.pending = false
				if err := s.m.ctx.Decode([]int32{s.last}); err != nil {
					s.err = countError(newError(DecodeError, s.mode, "failed to decode token", err))
					s.close(FinishError)
					continue
				}
			}
			if len(s.tokens) >= s.max {
				s.close(FinishLength)
				continue
			}
			tok := s.m.sampler.Sample(s.m.ctx.Logits(), s.history)
			text, err := s.m.bm.TokenPiece(tok)
			if err != nil {
				s.log.Debug().Err(err).Int32("token", tok).Msg("token has no text piece")
			}
			if s.m.bm.IsEndOfGeneration(tok) {
				s.reason = FinishStop
				s.finish()
				return Chunk{Token: tok, Text: text, Final: true, Reason: FinishStop}, true
			}
			s.tokens = append(s.tokens, tok)
			s.history = append(s.history, tok)
			s.last, s.pending = tok, true
			return Chunk{Token: tok, Text: text}, true

		case stateClosing:
			s.finish()
			return Chunk{Final: true, Reason: s.reason}, true

		default:
			return Chunk{}, false
		}
	}
}

func (s *Stream) close(reason FinishReason) {
	s.reason = reason
	s.state = stateClosing
}

// Cancel stops generation after the last delivered token. The next call to
// Next returns the closing chunk; no further decode is attempted.
func (s *Stream) Cancel() {
	switch s.state {
	case statePrompt:
		s.reason = FinishLength
		s.finish()
	case stateDecode:
		s.stop = true
	}
}

// abort releases the model if the stream was abandoned before it finished,
// for example when a sink or the backend panicked. It is a no-op on a
// finished stream.
func (s *Stream) abort() {
	if s.state == stateDone {
		return
	}
	if s.err == nil {
		s.err = newError(DecodeError, s.mode, "generation aborted", nil)
	}
	s.reason = FinishError
	s.finish()
}

// Err returns the prompt, decode or context error that ended the stream.
func (s *Stream) Err() error { return s.err }

// Reason is the finish reason; meaningful once Next has returned a final chunk.
func (s *Stream) Reason() FinishReason { return s.reason }

// Tokens returns the accepted (non-terminal) tokens so far.
func (s *Stream) Tokens() []int32 { return s.tokens }

// All adapts the stream to a range-over-func iterator. Breaking out of the
// loop cancels the stream and releases the model.
func (s *Stream) All() iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		defer s.abort()
		for {
			c, ok := s.Next()
			if !ok {
				return
			}
			if !yield(c) {
				s.Cancel()
				for {
					if _, ok := s.Next(); !ok {
						return
					}
				}
			}
		}
	}
}

// finish moves to the done state and releases the model exactly once.
func (s *Stream) finish() {
	s.state = stateDone
	s.release.Do(func() {
		s.m.mu.Unlock()
		dur := time.Since(s.start)
		generationDuration.WithLabelValues(s.mode).Observe(dur.Seconds())
		if !IsPromptProcessingError(s.err) {
			generationsTotal.WithLabelValues(s.mode, s.reason.String()).Inc()
			tokensGenerated.Add(float64(len(s.tokens)))
		}
		name := EventStreamDone
		if s.mode == "generate" {
			name = EventGenerateDone
		}
		s.r.pub.Publish(Event{Name: name, Handle: s.m.h, Fields: map[string]any{
			"tokens": len(s.tokens),
			"reason": s.reason.String(),
		}})
		ev := s.log.Debug()
		if s.err != nil {
			ev = s.log.Warn().Err(s.err)
		}
		ev.Int("tokens", len(s.tokens)).Str("reason", s.reason.String()).Dur("took", dur).Msg("generation finished")
	})
}

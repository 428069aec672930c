package engine

import (
	"context"
)

// Generate runs a blocking generation. The terminal token is not included in
// Result.Tokens. A mid-generation decode failure is not an error: the
// tokens produced so far are returned with FinishError. A canceled ctx
// returns the partial result together with ctx.Err().
func (r *Runtime) Generate(ctx context.Context, h Handle, prompt []int32, opts GenerateOptions) (Result, error) {
	s, err := r.newStream(ctx, "generate", h, prompt, opts)
	if err != nil {
		return Result{}, err
	}
	defer s.abort()
	for {
		if _, ok := s.Next(); !ok {
			break
		}
	}
	err = s.Err()
	switch {
	case err == nil, IsDecodeError(err):
		return Result{Tokens: s.Tokens(), FinishReason: s.Reason()}, nil
	case IsPromptProcessingError(err):
		return Result{}, err
	}
	return Result{Tokens: s.Tokens(), FinishReason: s.Reason()}, err
}

// GenerateStream pushes every chunk to sink on the caller's goroutine. When
// sink returns false for a non-final chunk, generation stops and one closing
// chunk (FinishLength) is still delivered. The returned error is the
// PromptProcessingError or DecodeError that ended generation, ctx.Err() on
// cancellation, or nil.
func (r *Runtime) GenerateStream(ctx context.Context, h Handle, prompt []int32, opts GenerateOptions, sink func(Chunk) bool) error {
	if sink == nil {
		if err := r.checkInit("stream"); err != nil {
			return err
		}
		return countError(newError(InvalidArgument, "stream", "sink is nil", nil))
	}
	s, err := r.Stream(ctx, h, prompt, opts)
	if err != nil {
		return err
	}
	defer s.abort()
	for {
		c, ok := s.Next()
		if !ok {
			break
		}
		if !sink(c) && !c.Final {
			s.Cancel()
		}
	}
	return s.Err()
}

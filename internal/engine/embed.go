package engine

import (
	"errors"
	"math"

	"llmcore/internal/backend"
)

// Embed runs the model's embedding path over tokens. With normalize the
// vector is scaled to unit L2 norm; an all-zero vector is returned as is.
func (r *Runtime) Embed(h Handle, tokens []int32, normalize bool) ([]float32, error) {
	const op = "embed"
	if err := r.checkInit(op); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, countError(newError(InvalidArgument, op, "token list is empty", nil))
	}
	m, err := r.acquire(op, h)
	if err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	if !m.info.SupportsEmbedding {
		return nil, countError(newError(UnsupportedCapability, op, "model does not support embeddings", nil))
	}
	m.ctx.Reset()
	vec, err := m.ctx.Encode(tokens)
	if err != nil {
		if errors.Is(err, backend.ErrUnsupported) {
			return nil, countError(newError(UnsupportedCapability, op, "backend cannot encode", err))
		}
		return nil, countError(newError(DecodeError, op, "failed to encode tokens", err))
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	if normalize {
		L2Normalize(out)
	}
	r.pub.Publish(Event{Name: EventEmbed, Handle: h, Fields: map[string]any{"tokens": len(tokens), "dim": len(out)}})
	return out, nil
}

// L2Normalize scales v in place to unit length when its norm is positive.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum <= 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

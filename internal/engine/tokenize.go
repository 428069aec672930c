package engine

import (
	"strings"
)

// Tokenize converts text to token ids. With addSpecial the backend prepends
// BOS (and any other special prefix the model defines).
func (r *Runtime) Tokenize(h Handle, text string, addSpecial bool) ([]int32, error) {
	const op = "tokenize"
	if err := r.checkInit(op); err != nil {
		return nil, err
	}
	m, err := r.acquire(op, h)
	if err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	toks, err := m.bm.Tokenize(text, addSpecial)
	if err != nil {
		return nil, countError(newError(TokenizeError, op, "tokenization failed", err))
	}
	if len(toks) == 0 {
		return nil, countError(newError(TokenizeError, op, "tokenization produced no tokens", nil))
	}
	return toks, nil
}

// Detokenize concatenates the text pieces of tokens. Special tokens are
// rendered as their piece text.
func (r *Runtime) Detokenize(h Handle, tokens []int32) (string, error) {
	const op = "detokenize"
	if err := r.checkInit(op); err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "", countError(newError(InvalidArgument, op, "token list is empty", nil))
	}
	m, err := r.acquire(op, h)
	if err != nil {
		return "", err
	}
	defer m.mu.Unlock()
	var b strings.Builder
	for _, t := range tokens {
		p, err := m.bm.TokenPiece(t)
		if err != nil {
			return "", countError(newError(TokenizeError, op, "failed to render token", err))
		}
		b.WriteString(p)
	}
	return b.String(), nil
}

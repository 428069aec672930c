// Package sampler turns a logit vector into one token id.
//
// A Pipeline applies, in order: repetition penalty, top-k, top-p, min-p,
// temperature and a seeded random draw. When a filter leaves no candidates
// the pipeline falls back to the single most probable token, so Sample
// always yields exactly one id.
package sampler

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// RepeatWindow is how many trailing tokens the repetition penalty inspects.
const RepeatWindow = 64

// tempFloor keeps temperature division finite; t=0 becomes greedy in practice.
const tempFloor = 1e-6

// Config is derived fresh for every generate call.
type Config struct {
	Temperature       float32 // [0,2]
	TopP              float32 // [0,1]; 1 disables
	TopK              int     // 0 disables
	MinP              float32 // [0,1]; 0 disables
	RepetitionPenalty float32 // <=0 or 1 disables
	Seed              int64   // negative picks a random seed
}

// Defaults mirror common llama.cpp settings.
func Defaults() Config {
	return Config{Temperature: 0.8, TopP: 0.95, TopK: 40, MinP: 0.05, RepetitionPenalty: 1.1, Seed: -1}
}

// Normalize clamps every field into its valid range.
func (c Config) Normalize() Config {
	c.Temperature = clamp(c.Temperature, 0, 2)
	c.TopP = clamp(c.TopP, 0, 1)
	c.MinP = clamp(c.MinP, 0, 1)
	if c.TopK < 0 {
		c.TopK = 0
	}
	if isNaN(c.RepetitionPenalty) {
		c.RepetitionPenalty = 1
	}
	return c
}

func isNaN(f float32) bool { return f != f }

func clamp(v, lo, hi float32) float32 {
	switch {
	case isNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

type candidate struct {
	id    int32
	logit float64
	p     float64
}

// Pipeline is a configured sampler chain. It is not safe for concurrent use;
// the engine builds one per call.
type Pipeline struct {
	cfg   Config
	rng   *rand.Rand
	cands []candidate
	seen  map[int32]struct{}
}

// New builds a pipeline from cfg (normalized first).
func New(cfg Config) *Pipeline {
	cfg = cfg.Normalize()
	seed := cfg.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return &Pipeline{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		seen: make(map[int32]struct{}, RepeatWindow),
	}
}

// Config returns the normalized configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Sample picks the next token. recent holds the tokens seen so far in this
// call (prompt plus generated) and feeds the repetition penalty. logits is
// not modified.
func (p *Pipeline) Sample(logits []float32, recent []int32) int32 {
	cands := p.cands[:0]
	for i, l := range logits {
		f := float64(l)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		cands = append(cands, candidate{id: int32(i), logit: f})
	}
	p.cands = cands
	if len(cands) == 0 {
		return 0
	}

	p.penalize(cands, recent)

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].logit > cands[j].logit })
	best := cands[0].id

	// top-k
	if k := p.cfg.TopK; k > 0 && k < len(cands) {
		cands = cands[:k]
	}

	softmax(cands, 1)

	// top-p: smallest prefix whose mass reaches TopP.
	if tp := float64(p.cfg.TopP); tp < 1 {
		if tp <= 0 {
			return best
		}
		var cum float64
		cut := len(cands)
		for i := range cands {
			cum += cands[i].p
			if cum >= tp {
				cut = i + 1
				break
			}
		}
		cands = cands[:cut]
	}

	// min-p
	if mp := float64(p.cfg.MinP); mp > 0 {
		threshold := mp * cands[0].p
		n := 0
		for _, c := range cands {
			if c.p >= threshold {
				cands[n] = c
				n++
			}
		}
		cands = cands[:n]
	}
	if len(cands) == 0 {
		return best
	}

	softmax(cands, math.Max(float64(p.cfg.Temperature), tempFloor))

	r := p.rng.Float64()
	var cum float64
	for _, c := range cands {
		cum += c.p
		if r < cum {
			return c.id
		}
	}
	return cands[len(cands)-1].id
}

// penalize applies the repetition penalty to candidates whose id occurs in the
// last RepeatWindow tokens of recent.
func (p *Pipeline) penalize(cands []candidate, recent []int32) {
	rp := float64(p.cfg.RepetitionPenalty)
	if rp <= 0 || rp == 1 || len(recent) == 0 {
		return
	}
	clear(p.seen)
	for _, t := range recent[max(len(recent)-RepeatWindow, 0):] {
		p.seen[t] = struct{}{}
	}
	for i := range cands {
		if _, ok := p.seen[cands[i].id]; !ok {
			continue
		}
		if cands[i].logit > 0 {
			cands[i].logit /= rp
		} else {
			cands[i].logit *= rp
		}
	}
}

// softmax fills c[i].p from logit/temp. cands must be sorted descending.
func softmax(cands []candidate, temp float64) {
	maxv := cands[0].logit / temp
	var sum float64
	for i := range cands {
		e := math.Exp(cands[i].logit/temp - maxv)
		cands[i].p = e
		sum += e
	}
	for i := range cands {
		cands[i].p /= sum
	}
}

// Greedy returns the index of the largest finite logit, or 0 when none is finite.
func Greedy(logits []float32) int32 {
	best, bestV := int32(0), math.Inf(-1)
	for i, l := range logits {
		f := float64(l)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if f > bestV {
			best, bestV = int32(i), f
		}
	}
	return best
}

package manager

import (
	"context"
	"time"

	"llmcore/internal/common/fsutil"
	"llmcore/internal/engine"
	"llmcore/pkg/types"
)

func invalid(op string, err error) error {
	return &engine.Error{Kind: engine.InvalidArgument, Op: op, Msg: err.Error(), Err: err}
}

// resolve maps a load request to a model id and a file path.
func (m *Manager) resolve(req types.LoadRequest) (id, path string, err error) {
	if req.ID != "" {
		mdl, ok := m.findModel(req.ID)
		if !ok {
			// The directory may have changed since the last scan.
			if rerr := m.Refresh(); rerr != nil {
				m.log.Warn().Err(rerr).Msg("rescan failed")
			}
			if mdl, ok = m.findModel(req.ID); !ok {
				return "", "", ErrModelNotFound(req.ID)
			}
		}
		return mdl.ID, mdl.Path, nil
	}
	p, err := fsutil.ResolveModelPath(m.cfg.ModelsDir, req.Path)
	if err != nil {
		return "", "", invalid("load", err)
	}
	return p, p, nil
}

func (m *Manager) loadOptions(req types.LoadRequest) engine.LoadOptions {
	opts := m.cfg.Load
	if req.ContextSize > 0 {
		opts.ContextSize = req.ContextSize
	}
	if req.GPULayers != nil {
		opts.GPULayers = *req.GPULayers
	}
	if req.Threads > 0 {
		opts.Threads = req.Threads
	}
	if req.BatchSize > 0 {
		opts.BatchSize = req.BatchSize
	}
	if req.UseMmap != nil {
		opts.UseMmap = *req.UseMmap
	}
	return opts
}

// LoadModel loads a registry model or an explicit path and starts tracking
// its handle.
func (m *Manager) LoadModel(req types.LoadRequest) (types.ModelInfo, error) {
	if err := req.Validate(); err != nil {
		return types.ModelInfo{}, invalid("load", err)
	}
	id, path, err := m.resolve(req)
	if err != nil {
		return types.ModelInfo{}, err
	}
	h, err := m.rt.Load(path, m.loadOptions(req))
	if err != nil {
		return types.ModelInfo{}, err
	}
	inst := &instance{
		handle:   h,
		label:    h.String(),
		modelID:  id,
		path:     path,
		loadedAt: time.Now(),
		genCh:    make(chan struct{}, 1),
		queueCh:  make(chan struct{}, m.cfg.MaxQueueDepth),
	}
	inst.touch()
	m.mu.Lock()
	m.instances[h] = inst
	m.mu.Unlock()

	info, err := m.rt.Info(h)
	if err != nil {
		return types.ModelInfo{}, err
	}
	return toModelInfo(info), nil
}

// EnsureDefault loads DefaultModel unless it is already loaded. The default
// may be a registry id or a path.
func (m *Manager) EnsureDefault() (types.ModelInfo, error) {
	ref := m.cfg.DefaultModel
	if ref == "" {
		return types.ModelInfo{}, nil
	}
	if h, err := m.Lookup(ref); err == nil {
		info, err := m.rt.Info(h)
		return toModelInfo(info), err
	}
	if _, ok := m.findModel(ref); ok {
		return m.LoadModel(types.LoadRequest{ID: ref})
	}
	return m.LoadModel(types.LoadRequest{Path: ref})
}

// Lookup resolves a handle string or the id of a loaded model to a handle.
func (m *Manager) Lookup(ref string) (engine.Handle, error) {
	if h, err := engine.ParseHandle(ref); err == nil {
		m.mu.RLock()
		_, ok := m.instances[h]
		m.mu.RUnlock()
		if ok {
			return h, nil
		}
		return 0, errUnknownHandle("lookup", h)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for h, inst := range m.instances {
		if inst.modelID == ref {
			return h, nil
		}
		if mdl, ok := findByPath(m.registry, inst.path); ok && mdl.Name == ref {
			return h, nil
		}
	}
	return 0, ErrModelNotFound(ref)
}

func findByPath(models []types.Model, path string) (types.Model, bool) {
	for _, mdl := range models {
		if mdl.Path == path {
			return mdl, true
		}
	}
	return types.Model{}, false
}

// Info returns the handle's model info.
func (m *Manager) Info(h engine.Handle) (types.ModelInfo, error) {
	info, err := m.rt.Info(h)
	if err != nil {
		return types.ModelInfo{}, err
	}
	return toModelInfo(info), nil
}

// Unload drains the handle's queue and frees it:
//   - new requests are rejected with 429 once draining starts;
//   - in-flight and queued requests get up to DrainTimeout to finish;
//   - the engine then frees the model, waiting for any call still running.
func (m *Manager) Unload(h engine.Handle) error {
	m.mu.RLock()
	inst := m.instances[h]
	m.mu.RUnlock()
	if inst == nil {
		return errUnknownHandle("unload", h)
	}
	inst.draining.Store(true)

	deadline := time.Now().Add(m.cfg.DrainTimeout)
	for len(inst.queueCh) > 0 || len(inst.genCh) > 0 {
		if time.Now().After(deadline) {
			m.log.Warn().Str("handle", inst.label).Int("queue", len(inst.queueCh)).Msg("drain timeout; freeing anyway")
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	m.mu.Lock()
	delete(m.instances, h)
	m.mu.Unlock()
	queueDepth.DeleteLabelValues(inst.label)
	return m.rt.Free(h)
}

// promptTokens returns the request's token ids, tokenizing the text prompt
// when none were given.
func (m *Manager) promptTokens(h engine.Handle, tokens []int32, text string, addSpecial *bool) ([]int32, error) {
	if len(tokens) > 0 {
		return tokens, nil
	}
	special := true
	if addSpecial != nil {
		special = *addSpecial
	}
	return m.rt.Tokenize(h, text, special)
}

func (m *Manager) generateOptions(req types.GenerateRequest) engine.GenerateOptions {
	opts := m.cfg.Generate
	if req.MaxTokens != nil {
		opts.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		opts.TopP = *req.TopP
	}
	if req.TopK != nil {
		opts.TopK = *req.TopK
	}
	if req.MinP != nil {
		opts.MinP = *req.MinP
	}
	if req.RepetitionPenalty != nil {
		opts.RepetitionPenalty = *req.RepetitionPenalty
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	return opts
}

func (m *Manager) Tokenize(ctx context.Context, h engine.Handle, req types.TokenizeRequest) (types.TokenizeResponse, error) {
	if err := req.Validate(); err != nil {
		return types.TokenizeResponse{}, invalid("tokenize", err)
	}
	release, err := m.beginGeneration(ctx, h)
	if err != nil {
		return types.TokenizeResponse{}, err
	}
	defer release()
	toks, err := m.rt.Tokenize(h, req.Text, req.AddSpecial)
	if err != nil {
		return types.TokenizeResponse{}, err
	}
	return types.TokenizeResponse{Tokens: toks}, nil
}

func (m *Manager) Detokenize(ctx context.Context, h engine.Handle, req types.DetokenizeRequest) (types.DetokenizeResponse, error) {
	if err := req.Validate(); err != nil {
		return types.DetokenizeResponse{}, invalid("detokenize", err)
	}
	release, err := m.beginGeneration(ctx, h)
	if err != nil {
		return types.DetokenizeResponse{}, err
	}
	defer release()
	text, err := m.rt.Detokenize(h, req.Tokens)
	if err != nil {
		return types.DetokenizeResponse{}, err
	}
	return types.DetokenizeResponse{Text: text}, nil
}

// Generate runs a blocking generation and renders the new tokens as text.
// A decode failure mid-generation is reported through FinishReason "error",
// not as an error.
func (m *Manager) Generate(ctx context.Context, h engine.Handle, req types.GenerateRequest) (types.GenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return types.GenerateResponse{}, invalid("generate", err)
	}
	release, err := m.beginGeneration(ctx, h)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer release()
	prompt, err := m.promptTokens(h, req.Tokens, req.Prompt, req.AddSpecial)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	res, err := m.rt.Generate(ctx, h, prompt, m.generateOptions(req))
	if err != nil {
		return types.GenerateResponse{}, err
	}
	out := types.GenerateResponse{
		Tokens:       res.Tokens,
		FinishReason: res.FinishReason.String(),
		PromptTokens: len(prompt),
	}
	if out.Tokens == nil {
		out.Tokens = []int32{}
	}
	if len(res.Tokens) > 0 {
		if out.Text, err = m.rt.Detokenize(h, res.Tokens); err != nil {
			return types.GenerateResponse{}, err
		}
	}
	return out, nil
}

// GenerateStream delivers chunks to sink as they are produced. Exactly one
// chunk has Final set when generation starts successfully. The returned
// error is the failure that ended generation, if any; the final chunk of a
// failed generation carries FinishReason "error".
func (m *Manager) GenerateStream(ctx context.Context, h engine.Handle, req types.GenerateRequest, sink func(types.StreamChunk) bool) error {
	if err := req.Validate(); err != nil {
		return invalid("stream", err)
	}
	release, err := m.beginGeneration(ctx, h)
	if err != nil {
		return err
	}
	defer release()
	prompt, err := m.promptTokens(h, req.Tokens, req.Prompt, req.AddSpecial)
	if err != nil {
		return err
	}
	return m.rt.GenerateStream(ctx, h, prompt, m.generateOptions(req), func(c engine.Chunk) bool {
		out := types.StreamChunk{Token: c.Token, Text: c.Text, Final: c.Final}
		if c.Final {
			out.FinishReason = c.Reason.String()
		}
		return sink(out)
	})
}

// Embed returns the embedding of the text or tokens; Normalize defaults to
// true.
func (m *Manager) Embed(ctx context.Context, h engine.Handle, req types.EmbedRequest) (types.EmbedResponse, error) {
	if err := req.Validate(); err != nil {
		return types.EmbedResponse{}, invalid("embed", err)
	}
	release, err := m.beginGeneration(ctx, h)
	if err != nil {
		return types.EmbedResponse{}, err
	}
	defer release()
	toks, err := m.promptTokens(h, req.Tokens, req.Text, nil)
	if err != nil {
		return types.EmbedResponse{}, err
	}
	normalize := req.Normalize == nil || *req.Normalize
	vec, err := m.rt.Embed(h, toks, normalize)
	if err != nil {
		return types.EmbedResponse{}, err
	}
	return types.EmbedResponse{Embedding: vec, Dimension: len(vec)}, nil
}

func toModelInfo(in engine.ModelInfo) types.ModelInfo {
	return types.ModelInfo{
		Handle:            in.Handle.String(),
		Path:              in.Path,
		Name:              in.Name,
		Architecture:      in.Architecture,
		Quantization:      in.Quantization,
		ContextSize:       in.ContextSize,
		TrainContextSize:  in.TrainContextSize,
		VocabSize:         in.VocabSize,
		EmbeddingSize:     in.EmbeddingSize,
		LayerCount:        in.LayerCount,
		HeadCount:         in.HeadCount,
		ParameterCount:    in.ParameterCount,
		FileSizeBytes:     in.FileSizeBytes,
		Threads:           in.Threads,
		BatchSize:         in.BatchSize,
		GPULayers:         in.GPULayers,
		SupportsEmbedding: in.SupportsEmbedding,
		SupportsVision:    in.SupportsVision,
		ChatTemplate:      in.ChatTemplate,
	}
}

package engine

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"llmcore/internal/backend"
	"llmcore/internal/sampler"
)

const (
	allGPULayers     = 999
	defaultBatchSize = 512
	unknownLabel     = "unknown"
)

// model is the owning record behind a Handle: one backend model, exactly one
// inference context and one sampler slot.
type model struct {
	mu      sync.Mutex
	h       Handle
	bm      backend.Model
	ctx     backend.Context
	sampler *sampler.Pipeline // rebuilt by every generate/stream call
	info    ModelInfo
	closed  bool
}

// Load opens path with the backend, creates its inference context and
// registers both behind a new handle. Partially constructed state is torn
// down before an error is returned.
func (r *Runtime) Load(path string, opts LoadOptions) (Handle, error) {
	const op = "load"
	if err := r.checkInit(op); err != nil {
		return 0, err
	}
	if strings.TrimSpace(path) == "" {
		return 0, countError(newError(InvalidArgument, op, "model path is empty", nil))
	}
	gpuLayers := opts.GPULayers
	if gpuLayers < 0 {
		gpuLayers = allGPULayers
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = DefaultThreads()
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	start := time.Now()
	bm, err := r.be.Load(path, backend.LoadParams{
		GPULayers:   gpuLayers,
		UseMmap:     opts.UseMmap,
		ContextSize: opts.ContextSize,
		BatchSize:   batch,
	})
	if err != nil {
		return 0, r.loadFailed(path, newError(LoadError, op, "failed to load model "+path, err))
	}
	md := bm.Metadata()
	nctx := md.TrainContextSize
	if opts.ContextSize > 0 && (nctx <= 0 || opts.ContextSize < nctx) {
		nctx = opts.ContextSize
	}
	bctx, err := bm.NewContext(backend.ContextParams{
		ContextSize: nctx,
		BatchSize:   batch,
		Threads:     threads,
		Embeddings:  md.SupportsEmbedding,
	})
	if err != nil {
		cerr := multierr.Append(err, bm.Close())
		return 0, r.loadFailed(path, newError(LoadError, op, "failed to create inference context", cerr))
	}

	m := &model{bm: bm, ctx: bctx, info: buildInfo(path, md, nctx, threads, batch, gpuLayers)}
	h := r.register(m)
	m.info.Handle = h

	modelsLoaded.Inc()
	loadsTotal.WithLabelValues("ok").Inc()
	r.pub.Publish(Event{Name: EventLoad, Handle: h, Fields: map[string]any{"path": path, "context_size": nctx}})
	r.log.Info().
		Str("handle", h.String()).
		Str("path", path).
		Str("name", m.info.Name).
		Int("n_ctx", nctx).
		Int("threads", threads).
		Int("n_batch", batch).
		Int("gpu_layers", gpuLayers).
		Dur("took", time.Since(start)).
		Msg("model loaded")
	return h, nil
}

func (r *Runtime) loadFailed(path string, err *Error) error {
	loadsTotal.WithLabelValues("error").Inc()
	r.pub.Publish(Event{Name: EventLoadFailed, Fields: map[string]any{"path": path, "error": err.Error()}})
	r.log.Warn().Err(err).Str("path", path).Msg("model load failed")
	return countError(err)
}

func buildInfo(path string, md backend.Metadata, nctx, threads, batch, gpuLayers int) ModelInfo {
	name := md.Name
	if name == "" {
		name = filepath.Base(path)
	}
	return ModelInfo{
		Path:              path,
		Name:              name,
		Architecture:      orUnknown(md.Architecture),
		Quantization:      orUnknown(md.Quantization),
		ContextSize:       nctx,
		TrainContextSize:  md.TrainContextSize,
		VocabSize:         md.VocabSize,
		EmbeddingSize:     md.EmbeddingSize,
		LayerCount:        md.LayerCount,
		HeadCount:         md.HeadCount,
		ParameterCount:    md.ParameterCount,
		FileSizeBytes:     md.FileSizeBytes,
		Threads:           threads,
		BatchSize:         batch,
		GPULayers:         gpuLayers,
		SupportsEmbedding: md.SupportsEmbedding,
		SupportsVision:    md.SupportsVision,
		ChatTemplate:      md.ChatTemplate,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}

// Info returns a snapshot of the model behind h.
func (r *Runtime) Info(h Handle) (ModelInfo, error) {
	const op = "info"
	if err := r.checkInit(op); err != nil {
		return ModelInfo{}, err
	}
	m, err := r.acquire(op, h)
	if err != nil {
		return ModelInfo{}, err
	}
	defer m.mu.Unlock()
	return m.info, nil
}

// Free invalidates h and releases the context, sampler slot and backend model
// in that order. Freeing the zero handle is a no-op. Free waits for an
// in-flight call on the same handle to finish; calls started after Free
// fail with InvalidHandle.
func (r *Runtime) Free(h Handle) error {
	const op = "free"
	if h == 0 {
		return nil
	}
	m := r.remove(h)
	if m == nil {
		return countError(newError(InvalidHandle, op, "invalid model handle "+h.String(), nil))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	err := m.ctx.Close()
	m.sampler = nil
	err = multierr.Append(err, m.bm.Close())

	modelsLoaded.Dec()
	r.pub.Publish(Event{Name: EventFree, Handle: h})
	if err != nil {
		r.log.Warn().Err(err).Str("handle", h.String()).Msg("model freed with errors")
		return countError(newError(KindUnknown, op, "teardown failed", err))
	}
	r.log.Info().Str("handle", h.String()).Str("name", m.info.Name).Msg("model freed")
	return nil
}

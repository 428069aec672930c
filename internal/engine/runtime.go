package engine

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"llmcore/internal/backend"
)

// Version is the library version reported by Runtime.Version. It is
// overridden at link time for release builds.
var Version = "0.3.0"

// Config holds everything needed to construct a Runtime.
type Config struct {
	Backend backend.Backend
	// Logger receives structured logs. Nil disables logging.
	Logger *zerolog.Logger
	// Publisher receives lifecycle events. Nil drops them.
	Publisher EventPublisher
}

// Runtime owns the backend and the handle registry. All methods are safe for
// concurrent use; calls on the same handle are serialized by that model's mutex.
type Runtime struct {
	be  backend.Backend
	log zerolog.Logger
	pub EventPublisher

	initOnce sync.Once
	initErr  error
	ready    atomic.Bool

	mu    sync.RWMutex
	slots []slot
	free  []int
}

type slot struct {
	gen uint32
	m   *model
}

// New constructs a Runtime. Init must be called before any model operation.
func New(cfg Config) *Runtime {
	r := &Runtime{be: cfg.Backend, log: zerolog.Nop(), pub: cfg.Publisher}
	if cfg.Logger != nil {
		r.log = cfg.Logger.With().Str("component", "engine").Str("backend", cfg.Backend.Name()).Logger()
	}
	if r.pub == nil {
		r.pub = noopPublisher{}
	}
	return r
}

// Init performs one-time backend setup. Repeated calls have no further effect
// and return the first call's result.
func (r *Runtime) Init() error {
	r.initOnce.Do(func() {
		if err := r.be.Init(); err != nil {
			r.initErr = newError(NotInitialized, "init", "backend initialization failed", err)
			r.log.Error().Err(err).Msg("backend init failed")
			return
		}
		r.ready.Store(true)
		r.log.Info().Str("version", Version).Str("backend_version", r.be.Version()).Msg("runtime initialized")
	})
	return r.initErr
}

// Initialized reports whether Init has completed successfully.
func (r *Runtime) Initialized() bool { return r.ready.Load() }

func (r *Runtime) checkInit(op string) error {
	if !r.ready.Load() {
		return countError(newError(NotInitialized, op, "runtime not initialized; call Init first", nil))
	}
	return nil
}

// Version returns the library version.
func (r *Runtime) Version() string { return Version }

// BackendVersion returns the version string reported by the backend.
func (r *Runtime) BackendVersion() string { return r.be.Version() }

// Backend returns the backend this runtime dispatches to.
func (r *Runtime) Backend() backend.Backend { return r.be }

// register stores m in a free slot and returns its handle.
func (r *Runtime) register(m *model) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idx int
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = len(r.slots)
		r.slots = append(r.slots, slot{gen: 1})
	}
	r.slots[idx].m = m
	m.h = makeHandle(idx, r.slots[idx].gen)
	return m.h
}

func (r *Runtime) validSlotLocked(h Handle) (int, bool) {
	idx := h.slot()
	if h == 0 || idx < 0 || idx >= len(r.slots) {
		return 0, false
	}
	s := r.slots[idx]
	return idx, s.m != nil && s.gen == h.generation()
}

func (r *Runtime) lookup(h Handle) *model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.validSlotLocked(h)
	if !ok {
		return nil
	}
	return r.slots[idx].m
}

// remove invalidates h and returns the model it referred to.
func (r *Runtime) remove(h Handle) *model {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.validSlotLocked(h)
	if !ok {
		return nil
	}
	s := &r.slots[idx]
	m := s.m
	s.m = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	r.free = append(r.free, idx)
	return m
}

// acquire validates h and locks its model. The caller must call m.mu.Unlock.
func (r *Runtime) acquire(op string, h Handle) (*model, error) {
	m := r.lookup(h)
	if m == nil {
		return nil, countError(newError(InvalidHandle, op, "invalid model handle "+h.String(), nil))
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, countError(newError(InvalidHandle, op, "model handle "+h.String()+" was freed", nil))
	}
	return m, nil
}

// Handles lists live handles in slot order.
func (r *Runtime) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handle, 0, len(r.slots))
	for i, s := range r.slots {
		if s.m != nil {
			out = append(out, makeHandle(i, s.gen))
		}
	}
	return out
}

// Close frees every live model and returns the combined teardown errors.
func (r *Runtime) Close() error {
	var err error
	for _, h := range r.Handles() {
		if ferr := r.Free(h); ferr != nil && !IsInvalidHandle(ferr) {
			err = multierr.Append(err, ferr)
		}
	}
	return err
}

package manager

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"llmcore/internal/engine"
	"llmcore/internal/registry"
	"llmcore/pkg/types"
)

// instance tracks one loaded handle and its admission queue.
type instance struct {
	handle   engine.Handle
	label    string // handle string, used as metric label
	modelID  string // registry id, or the path for explicit loads
	path     string
	loadedAt time.Time
	lastUsed atomic.Int64
	draining atomic.Bool
	genCh    chan struct{} // size 1: single in-flight call
	queueCh  chan struct{} // buffered: queue slots
}

func (i *instance) touch() { i.lastUsed.Store(time.Now().UnixNano()) }

type Manager struct {
	rt  *engine.Runtime
	cfg Config
	log zerolog.Logger

	mu        sync.RWMutex
	registry  []types.Model
	instances map[engine.Handle]*instance
}

// New constructs a Manager. The runtime must be initialized separately.
// The models directory is scanned lazily; call Refresh to rescan.
func New(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		rt:        cfg.Runtime,
		cfg:       cfg,
		log:       zerolog.Nop(),
		instances: make(map[engine.Handle]*instance),
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	return m
}

// Runtime returns the underlying engine runtime.
func (m *Manager) Runtime() *engine.Runtime { return m.rt }

// Ready reports whether the runtime has been initialized.
func (m *Manager) Ready() bool { return m.rt.Initialized() }

// Refresh rescans the models directory. An empty ModelsDir yields an empty
// listing.
func (m *Manager) Refresh() error {
	if m.cfg.ModelsDir == "" {
		return nil
	}
	models, err := registry.LoadDir(m.cfg.ModelsDir, m.rt.Backend().Extensions()...)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.registry = models
	m.mu.Unlock()
	m.log.Debug().Int("count", len(models)).Str("dir", m.cfg.ModelsDir).Msg("models directory scanned")
	return nil
}

// Available returns the last registry scan.
func (m *Manager) Available() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Model, len(m.registry))
	copy(out, m.registry)
	return out
}

func (m *Manager) findModel(id string) (types.Model, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return registry.Find(m.registry, id)
}

// Loaded returns info for every handle loaded through the manager, oldest
// first.
func (m *Manager) Loaded() []types.ModelInfo {
	m.mu.RLock()
	insts := make([]*instance, 0, len(m.instances))
	for _, inst := range m.instances {
		insts = append(insts, inst)
	}
	m.mu.RUnlock()
	sort.Slice(insts, func(i, j int) bool { return insts[i].loadedAt.Before(insts[j].loadedAt) })
	out := make([]types.ModelInfo, 0, len(insts))
	for _, inst := range insts {
		info, err := m.rt.Info(inst.handle)
		if err != nil {
			continue // freed concurrently
		}
		out = append(out, toModelInfo(info))
	}
	return out
}

// ListModels combines the registry scan with the loaded handles.
func (m *Manager) ListModels() types.ModelsResponse {
	return types.ModelsResponse{Available: m.Available(), Loaded: m.Loaded()}
}

// System reports backend and host capabilities.
func (m *Manager) System() types.SystemInfo {
	s := m.rt.System()
	return types.SystemInfo{
		Version:        s.Version,
		Backend:        s.Backend,
		BackendVersion: s.BackendVersion,
		GPU:            s.GPU,
		GPUBackend:     s.GPUBackend,
		VRAMBytes:      s.VRAMBytes,
		CPUBrand:       s.CPUBrand,
		PhysicalCores:  s.PhysicalCores,
		LogicalCores:   s.LogicalCores,
		DefaultThreads: s.DefaultThreads,
		CPUFeatures:    s.CPUFeatures,
	}
}

// Close unloads every model loaded through the manager.
func (m *Manager) Close() error {
	m.mu.RLock()
	handles := make([]engine.Handle, 0, len(m.instances))
	for h := range m.instances {
		handles = append(handles, h)
	}
	m.mu.RUnlock()
	var err error
	for _, h := range handles {
		err = multierr.Append(err, m.Unload(h))
	}
	return err
}

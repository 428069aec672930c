package manager

import (
	"time"

	"github.com/rs/zerolog"

	"llmcore/internal/engine"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 5 * time.Second
	defaultMaxTokens     = 128
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	Runtime *engine.Runtime
	// ModelsDir is scanned for files matching the backend's extensions.
	ModelsDir string
	// DefaultModel is an id or path loaded by EnsureDefault.
	DefaultModel string
	// Load is applied to load requests; request fields override it.
	Load engine.LoadOptions
	// Generate holds sampling defaults for requests that omit fields.
	Generate      engine.GenerateOptions
	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration
	Logger        *zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = defaultMaxQueueDepth
	}
	if c.MaxWait <= 0 {
		c.MaxWait = defaultMaxWait
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.Generate.MaxTokens <= 0 {
		c.Generate.MaxTokens = defaultMaxTokens
	}
	return c
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the server and CLI.
// Zero values mean "unspecified" and are replaced by Defaults.
type Config struct {
	Addr         string     `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir    string     `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DefaultModel string     `json:"default_model" yaml:"default_model" toml:"default_model"`
	Backend      string     `json:"backend" yaml:"backend" toml:"backend"`
	MaxBodyBytes int64      `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	Log          Log        `json:"log" yaml:"log" toml:"log"`
	Load         LoadConfig `json:"load" yaml:"load" toml:"load"`
	Sampling     Sampling   `json:"sampling" yaml:"sampling" toml:"sampling"`
	CORS         CORS       `json:"cors" yaml:"cors" toml:"cors"`
}

// Log configures zerolog output.
type Log struct {
	Level  string `json:"level" yaml:"level" toml:"level"`    // debug, info, warn, error
	Format string `json:"format" yaml:"format" toml:"format"` // console or json
}

// LoadConfig holds default model load options.
type LoadConfig struct {
	ContextSize int   `json:"context_size" yaml:"context_size" toml:"context_size"`
	GPULayers   *int  `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Threads     int   `json:"threads" yaml:"threads" toml:"threads"`
	BatchSize   int   `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	UseMmap     *bool `json:"use_mmap" yaml:"use_mmap" toml:"use_mmap"`
}

// Sampling holds default generation parameters for requests that omit them.
type Sampling struct {
	MaxTokens         int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Temperature       *float32 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP              *float32 `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK              *int     `json:"top_k" yaml:"top_k" toml:"top_k"`
	MinP              *float32 `json:"min_p" yaml:"min_p" toml:"min_p"`
	RepetitionPenalty *float32 `json:"repetition_penalty" yaml:"repetition_penalty" toml:"repetition_penalty"`
	Seed              *int64   `json:"seed" yaml:"seed" toml:"seed"`
}

// CORS configuration (opt-in).
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

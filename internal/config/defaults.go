package config

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultAddr         = ":8080"
	DefaultModelsDir    = "~/models/llm"
	DefaultBackend      = "tablelm"
	DefaultMaxBodyBytes = 1 << 20
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultMaxTokens    = 128
)

// WithDefaults returns cfg with every unset field filled in. Sampling
// pointers stay nil when unset; the engine treats nil as "use the request
// or sampler default".
func (cfg Config) WithDefaults() Config {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = DefaultModelsDir
	}
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Load.GPULayers == nil {
		all := -1
		cfg.Load.GPULayers = &all
	}
	if cfg.Load.UseMmap == nil {
		on := true
		cfg.Load.UseMmap = &on
	}
	if cfg.Sampling.MaxTokens <= 0 {
		cfg.Sampling.MaxTokens = DefaultMaxTokens
	}
	if cfg.CORS.Enabled {
		if len(cfg.CORS.Origins) == 0 {
			cfg.CORS.Origins = []string{"*"}
		}
		if len(cfg.CORS.Methods) == 0 {
			cfg.CORS.Methods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		}
		if len(cfg.CORS.Headers) == 0 {
			cfg.CORS.Headers = []string{"Content-Type", "Authorization"}
		}
	}
	return cfg
}

// Defaults returns a fully populated default configuration.
func Defaults() Config { return Config{}.WithDefaults() }

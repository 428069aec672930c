package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmcore/internal/backend"
	"llmcore/internal/backend/llamacpp"
	"llmcore/internal/backend/tablelm"
	"llmcore/internal/config"
	"llmcore/internal/engine"
	"llmcore/internal/logging"
	"llmcore/internal/manager"
	"llmcore/internal/sampler"
)

// app carries the resolved configuration shared by all subcommands.
type app struct {
	out io.Writer

	cfgPath   string
	logLevel  string
	logFormat string
	backend   string
	modelsDir string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "llmcore",
		Short:         "Load local language models, generate text and serve an HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "Config file (.yaml, .json or .toml)")
	pf.StringVar(&a.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error|off")
	pf.StringVar(&a.logFormat, "log-format", config.DefaultLogFormat, "Log format: console|json")
	pf.StringVar(&a.backend, "backend", config.DefaultBackend, "Model backend: tablelm|llamacpp")
	pf.StringVar(&a.modelsDir, "models-dir", config.DefaultModelsDir, "Directory scanned for model files")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.resolve(cmd)
	}

	root.AddCommand(
		newServeCmd(a),
		newModelsCmd(a),
		newInfoCmd(a),
		newTokenizeCmd(a),
		newGenerateCmd(a),
		newEmbedCmd(a),
		newSystemCmd(a),
		newVersionCmd(a),
	)
	return root
}

// resolve loads the config file and overlays flags the user set explicitly.
func (a *app) resolve(cmd *cobra.Command) error {
	var cfg config.Config
	if a.cfgPath != "" {
		var err error
		if cfg, err = config.Load(a.cfgPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") || cfg.Log.Format == "" {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("backend") || cfg.Backend == "" {
		cfg.Backend = a.backend
	}
	if flags.Changed("models-dir") || cfg.ModelsDir == "" {
		cfg.ModelsDir = a.modelsDir
	}
	a.cfg = cfg.WithDefaults()
	a.log = logging.Setup(a.cfg.Log.Level, a.cfg.Log.Format)
	return nil
}

func selectBackend(name string, threads int) (backend.Backend, error) {
	switch strings.ToLower(name) {
	case "tablelm":
		return tablelm.New(), nil
	case "llamacpp", "llama", "llama.cpp":
		return llamacpp.New(threads), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want tablelm or llamacpp)", name)
}

// generateDefaults starts from the sampler defaults and applies the config.
func generateDefaults(s config.Sampling) engine.GenerateOptions {
	d := sampler.Defaults()
	opts := engine.GenerateOptions{
		MaxTokens:         s.MaxTokens,
		Temperature:       d.Temperature,
		TopP:              d.TopP,
		TopK:              d.TopK,
		MinP:              d.MinP,
		RepetitionPenalty: d.RepetitionPenalty,
		Seed:              d.Seed,
	}
	if s.Temperature != nil {
		opts.Temperature = *s.Temperature
	}
	if s.TopP != nil {
		opts.TopP = *s.TopP
	}
	if s.TopK != nil {
		opts.TopK = *s.TopK
	}
	if s.MinP != nil {
		opts.MinP = *s.MinP
	}
	if s.RepetitionPenalty != nil {
		opts.RepetitionPenalty = *s.RepetitionPenalty
	}
	if s.Seed != nil {
		opts.Seed = *s.Seed
	}
	return opts
}

func loadDefaults(l config.LoadConfig) engine.LoadOptions {
	opts := engine.LoadOptions{ContextSize: l.ContextSize, Threads: l.Threads, BatchSize: l.BatchSize, GPULayers: -1, UseMmap: true}
	if l.GPULayers != nil {
		opts.GPULayers = *l.GPULayers
	}
	if l.UseMmap != nil {
		opts.UseMmap = *l.UseMmap
	}
	return opts
}

// newManager builds backend, runtime and manager from the resolved config.
// A missing models directory is logged, not fatal: explicit paths still work.
func (a *app) newManager() (*manager.Manager, error) {
	be, err := selectBackend(a.cfg.Backend, a.cfg.Load.Threads)
	if err != nil {
		return nil, err
	}
	rt := engine.New(engine.Config{Backend: be, Logger: &a.log})
	if err := rt.Init(); err != nil {
		return nil, err
	}
	mgr := manager.New(manager.Config{
		Runtime:      rt,
		ModelsDir:    a.cfg.ModelsDir,
		DefaultModel: a.cfg.DefaultModel,
		Load:         loadDefaults(a.cfg.Load),
		Generate:     generateDefaults(a.cfg.Sampling),
		Logger:       &a.log,
	})
	if err := mgr.Refresh(); err != nil {
		a.log.Warn().Err(err).Str("dir", a.cfg.ModelsDir).Msg("models directory not scanned")
	}
	return mgr, nil
}

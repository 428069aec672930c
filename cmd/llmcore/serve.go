package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"llmcore/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr            string
		defaultModel    string
		corsEnabled     bool
		corsOrigins     string
		generateTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Example: "  llmcore serve --addr :8080 --models-dir ~/models/llm\n" +
			"  llmcore serve --config llmcore.yaml --cors-enabled --cors-origins 'http://localhost:5173'",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("default-model") {
				cfg.DefaultModel = defaultModel
			}
			if cmd.Flags().Changed("cors-enabled") {
				cfg.CORS.Enabled = corsEnabled
			}
			if cmd.Flags().Changed("cors-origins") {
				cfg.CORS.Origins = splitCSV(corsOrigins)
			}
			*cfg = cfg.WithDefaults()
			return a.serve(cmd.Context(), generateTimeout)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	f.StringVar(&defaultModel, "default-model", "", "Model id or path loaded at startup")
	f.BoolVar(&corsEnabled, "cors-enabled", false, "Enable CORS")
	f.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed origins")
	f.DurationVar(&generateTimeout, "generate-timeout", 0, "Upper bound per generate request (0 disables)")
	return cmd
}

func (a *app) serve(parent context.Context, generateTimeout time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, err := a.newManager()
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			a.log.Warn().Err(err).Msg("unloading models")
		}
	}()
	if info, err := mgr.EnsureDefault(); err != nil {
		return err
	} else if info.Handle != "" {
		a.log.Info().Str("handle", info.Handle).Str("name", info.Name).Msg("default model loaded")
	}

	httpapi.SetLogger(a.log)
	httpapi.SetRequestLogLevel(a.cfg.Log.Level)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetGenerateTimeout(generateTimeout)
	httpapi.SetCORSOptions(a.cfg.CORS.Enabled, a.cfg.CORS.Origins, a.cfg.CORS.Methods, a.cfg.CORS.Headers)
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", a.cfg.Addr).Str("models_dir", a.cfg.ModelsDir).Str("backend", a.cfg.Backend).Msg("llmcore listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			a.log.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	return g.Wait()
}

// splitCSV splits a comma-separated list, trimming blanks and dropping
// empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

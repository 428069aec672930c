package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"llmcore/internal/engine"
	"llmcore/internal/manager"
	"llmcore/internal/registry"
	"llmcore/pkg/types"
)

func (a *app) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(a.out)
	tw.SetStyle(table.StyleLight)
	return tw
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List model files in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := selectBackend(a.cfg.Backend, a.cfg.Load.Threads)
			if err != nil {
				return err
			}
			models, err := registry.LoadDir(a.cfg.ModelsDir, be.Extensions()...)
			if err != nil {
				return err
			}
			tw := a.newTable()
			tw.AppendHeader(table.Row{"ID", "Name", "Size", "Path"})
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
			for _, m := range models {
				tw.AppendRow(table.Row{m.ID, m.Name, humanBytes(m.SizeBytes), m.Path})
			}
			tw.AppendFooter(table.Row{"", "", strconv.Itoa(len(models)) + " models", ""})
			tw.Render()
			return nil
		},
	}
}

// loadFlags are the per-command model load overrides.
type loadFlags struct {
	contextSize int
	gpuLayers   int
	threads     int
}

func (lf *loadFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&lf.contextSize, "ctx-size", 0, "Context window (0: config or trained maximum)")
	f.IntVar(&lf.gpuLayers, "gpu-layers", -1, "Layers to offload (-1: all)")
	f.IntVar(&lf.threads, "threads", 0, "Inference threads (0: auto)")
}

// openModel loads ref, which is either a model id from the models directory
// or a path.
func (a *app) openModel(cmd *cobra.Command, mgr *manager.Manager, ref string, lf *loadFlags) (engine.Handle, error) {
	req := types.LoadRequest{ContextSize: lf.contextSize, Threads: lf.threads}
	if cmd.Flags().Changed("gpu-layers") {
		req.GPULayers = &lf.gpuLayers
	}
	if _, ok := registry.Find(mgr.Available(), ref); ok {
		req.ID = ref
	} else {
		req.Path = ref
	}
	info, err := mgr.LoadModel(req)
	if err != nil {
		return 0, err
	}
	return engine.ParseHandle(info.Handle)
}

// withModel runs fn against a freshly loaded model and unloads it afterwards.
// The context is canceled on interrupt.
func (a *app) withModel(cmd *cobra.Command, ref string, lf *loadFlags, fn func(ctx context.Context, mgr *manager.Manager, h engine.Handle) error) error {
	mgr, err := a.newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()
	h, err := a.openModel(cmd, mgr, ref, lf)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return fn(ctx, mgr, h)
}

func newInfoCmd(a *app) *cobra.Command {
	lf := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "info <model>",
		Short: "Load a model and print its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModel(cmd, args[0], lf, func(_ context.Context, mgr *manager.Manager, h engine.Handle) error {
				info, err := mgr.Info(h)
				if err != nil {
					return err
				}
				tw := a.newTable()
				tw.AppendRows([]table.Row{
					{"name", info.Name},
					{"path", info.Path},
					{"architecture", info.Architecture},
					{"quantization", info.Quantization},
					{"parameters", info.ParameterCount},
					{"file size", humanBytes(info.FileSizeBytes)},
					{"context", fmt.Sprintf("%d (trained %d)", info.ContextSize, info.TrainContextSize)},
					{"vocab", info.VocabSize},
					{"embedding size", info.EmbeddingSize},
					{"layers / heads", fmt.Sprintf("%d / %d", info.LayerCount, info.HeadCount)},
					{"threads / batch", fmt.Sprintf("%d / %d", info.Threads, info.BatchSize)},
					{"gpu layers", info.GPULayers},
					{"embeddings", info.SupportsEmbedding},
					{"vision", info.SupportsVision},
				})
				tw.Render()
				return nil
			})
		},
	}
	lf.register(cmd)
	return cmd
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

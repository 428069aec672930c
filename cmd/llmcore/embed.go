package main

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"llmcore/internal/engine"
	"llmcore/internal/manager"
	"llmcore/pkg/types"
)

func newEmbedCmd(a *app) *cobra.Command {
	lf := &loadFlags{}
	var raw bool
	cmd := &cobra.Command{
		Use:   "embed <model> <text>",
		Short: "Print the embedding of text as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModel(cmd, args[0], lf, func(ctx context.Context, mgr *manager.Manager, h engine.Handle) error {
				normalize := !raw
				res, err := mgr.Embed(ctx, h, types.EmbedRequest{Text: args[1], Normalize: &normalize})
				if err != nil {
					return err
				}
				return json.NewEncoder(a.out).Encode(res)
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Skip L2 normalization")
	lf.register(cmd)
	return cmd
}

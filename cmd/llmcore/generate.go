package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"llmcore/internal/engine"
	"llmcore/internal/manager"
	"llmcore/pkg/types"
)

func newGenerateCmd(a *app) *cobra.Command {
	lf := &loadFlags{}
	var (
		maxTokens     int
		temperature   float32
		topP          float32
		topK          int
		minP          float32
		repeatPenalty float32
		seed          int64
		stream        bool
		noSpecial     bool
	)
	cmd := &cobra.Command{
		Use:   "generate <model> <prompt>",
		Short: "Generate a completion for prompt",
		Example: "  llmcore generate tiny.tlm.yaml 'hello world'\n" +
			"  llmcore generate ~/models/llm/phi.gguf 'Once upon a time' --stream --max-tokens 64 --temperature 0",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.GenerateRequest{Prompt: args[1]}
			f := cmd.Flags()
			if f.Changed("max-tokens") {
				req.MaxTokens = &maxTokens
			}
			if f.Changed("temperature") {
				req.Temperature = &temperature
			}
			if f.Changed("top-p") {
				req.TopP = &topP
			}
			if f.Changed("top-k") {
				req.TopK = &topK
			}
			if f.Changed("min-p") {
				req.MinP = &minP
			}
			if f.Changed("repeat-penalty") {
				req.RepetitionPenalty = &repeatPenalty
			}
			if f.Changed("seed") {
				req.Seed = &seed
			}
			if noSpecial {
				off := false
				req.AddSpecial = &off
			}
			if err := req.Validate(); err != nil {
				return err
			}
			return a.withModel(cmd, args[0], lf, func(ctx context.Context, mgr *manager.Manager, h engine.Handle) error {
				if stream {
					return a.streamTo(ctx, mgr, h, req)
				}
				res, err := mgr.Generate(ctx, h, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, res.Text)
				a.log.Debug().Int("prompt_tokens", res.PromptTokens).Int("tokens", len(res.Tokens)).Str("finish_reason", res.FinishReason).Msg("generated")
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	fl.Float32Var(&temperature, "temperature", 0, "Sampling temperature (0: greedy)")
	fl.Float32Var(&topP, "top-p", 0, "Nucleus sampling threshold")
	fl.IntVar(&topK, "top-k", 0, "Top-k cutoff (0: disabled)")
	fl.Float32Var(&minP, "min-p", 0, "Min-p threshold")
	fl.Float32Var(&repeatPenalty, "repeat-penalty", 0, "Repetition penalty (1: disabled)")
	fl.Int64Var(&seed, "seed", -1, "Sampler seed (-1: random)")
	fl.BoolVar(&stream, "stream", false, "Print tokens as they are produced")
	fl.BoolVar(&noSpecial, "no-special", false, "Do not add BOS/EOS tokens to the prompt")
	lf.register(cmd)
	return cmd
}

func (a *app) streamTo(ctx context.Context, mgr *manager.Manager, h engine.Handle, req types.GenerateRequest) error {
	var reason string
	err := mgr.GenerateStream(ctx, h, req, func(ch types.StreamChunk) bool {
		if ch.Final {
			// The closing chunk carries the end-of-generation piece, if any.
			reason = ch.FinishReason
			return true
		}
		fmt.Fprint(a.out, ch.Text)
		return true
	})
	fmt.Fprintln(a.out)
	if err != nil {
		return err
	}
	a.log.Debug().Str("finish_reason", reason).Msg("stream finished")
	return nil
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"llmcore/internal/engine"
	"llmcore/internal/manager"
	"llmcore/pkg/types"
)

func newTokenizeCmd(a *app) *cobra.Command {
	lf := &loadFlags{}
	var (
		noSpecial bool
		decode    bool
	)
	cmd := &cobra.Command{
		Use:   "tokenize <model> <text>",
		Short: "Print the token ids of text, or decode ids with --decode",
		Example: "  llmcore tokenize tiny.tlm.yaml 'hello world'\n" +
			"  llmcore tokenize tiny.tlm.yaml --decode '0 2 3'",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModel(cmd, args[0], lf, func(ctx context.Context, mgr *manager.Manager, h engine.Handle) error {
				if decode {
					toks, err := parseTokens(args[1])
					if err != nil {
						return err
					}
					res, err := mgr.Detokenize(ctx, h, types.DetokenizeRequest{Tokens: toks})
					if err != nil {
						return err
					}
					fmt.Fprintln(a.out, res.Text)
					return nil
				}
				res, err := mgr.Tokenize(ctx, h, types.TokenizeRequest{Text: args[1], AddSpecial: !noSpecial})
				if err != nil {
					return err
				}
				parts := make([]string, len(res.Tokens))
				for i, t := range res.Tokens {
					parts[i] = strconv.Itoa(int(t))
				}
				fmt.Fprintln(a.out, strings.Join(parts, " "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noSpecial, "no-special", false, "Do not add BOS/EOS tokens")
	cmd.Flags().BoolVar(&decode, "decode", false, "Treat the argument as space or comma separated token ids")
	lf.register(cmd)
	return cmd
}

func parseTokens(s string) ([]int32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]int32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad token id %q: %w", f, err)
		}
		out = append(out, int32(v))
	}
	return out, nil
}

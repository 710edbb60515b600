package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmproc/llmproc-go/internal/config"
	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool/builtin"
)

func buildCountTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count-tokens <program.yaml>",
		Short: "Report the program's current input-token count and context-window usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return countTokens(cmd, args[0])
		},
	}
	return cmd
}

func countTokens(cmd *cobra.Command, configPath string) error {
	prog, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	client, err := buildProviderClient(prog)
	if err != nil {
		return err
	}

	p, err := process.Start(prog, client, process.EnvInfo{}, builtin.Register)
	if err != nil {
		return fmt.Errorf("starting process: %w", err)
	}

	tc, err := p.CountTokens(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting tokens: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "input_tokens=%d context_window=%d percentage=%.2f%% remaining_tokens=%d\n",
		tc.InputTokens, tc.ContextWindow, tc.Percentage, tc.RemainingTokens)
	return nil
}

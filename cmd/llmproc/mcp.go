package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmproc/llmproc-go/internal/config"
	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool/builtin"
)

func buildMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Inspect the tools a program exposes, including MCP-aggregated ones",
	}
	cmd.AddCommand(buildMCPListCmd())
	return cmd
}

func buildMCPListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <program.yaml>",
		Short: "List every tool the program exposes to the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTools(cmd, args[0])
		},
	}
}

// listTools starts the process (so builtin.Register's MCP aggregators
// connect the same way a real run would) purely to enumerate
// Tools().Schemas; no provider call is made.
func listTools(cmd *cobra.Command, configPath string) error {
	prog, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	p, err := process.Start(prog, nil, process.EnvInfo{}, builtin.Register)
	if err != nil {
		return fmt.Errorf("starting process: %w", err)
	}

	schemas, err := p.Tools().Schemas(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, s := range schemas {
		fmt.Fprintf(out, "%s\t%s\n", s.Name, s.Description)
	}
	return nil
}

package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRequiresModel(t *testing.T) {
	_, err := Compile(CompileOptions{Provider: "anthropic"})
	require.Error(t, err)
}

func TestCompileRejectsUnknownProvider(t *testing.T) {
	_, err := Compile(CompileOptions{Model: "claude-haiku", Provider: "made-up"})
	require.Error(t, err)
}

func TestCompileDefaultsMaxIterations(t *testing.T) {
	p, err := Compile(CompileOptions{Model: "claude-haiku", Provider: "anthropic"})
	require.NoError(t, err)
	assert.Equal(t, 10, p.Params.MaxIterations)
}

func TestCompileAutoEnablesFDTools(t *testing.T) {
	p, err := Compile(CompileOptions{
		Model:    "claude-haiku",
		Provider: "anthropic",
		Tools:    ToolConfig{FileDescriptorEnabled: true},
	})
	require.NoError(t, err)
	assert.Contains(t, p.Tools.Builtins, "read_fd")
	assert.Contains(t, p.Tools.Builtins, "fd_to_file")
}

func TestCompileRespectsExplicitFDTool(t *testing.T) {
	p, err := Compile(CompileOptions{
		Model:    "claude-haiku",
		Provider: "anthropic",
		Tools:    ToolConfig{FileDescriptorEnabled: true, Builtins: []string{"read_fd"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"read_fd"}, p.Tools.Builtins, "must not duplicate an explicitly enabled FD tool")
}

func TestCompileRejectsThinkingBudgetAboveMaxTokens(t *testing.T) {
	_, err := Compile(CompileOptions{
		Model:    "claude-3-7-sonnet",
		Provider: "anthropic",
		Params:   RuntimeParams{ThinkingBudget: 2000, MaxTokens: 1000},
	})
	require.Error(t, err)
}

func TestCompileLinkedProgramsDAG(t *testing.T) {
	child, err := Compile(CompileOptions{Model: "claude-haiku", Provider: "anthropic"})
	require.NoError(t, err)

	parent, err := Compile(CompileOptions{
		Model:    "claude-haiku",
		Provider: "anthropic",
		LinkedPrograms: map[string]LinkedProgram{
			"researcher": {Program: child, Description: "does research"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, parent.LinkedPrograms, 1)
}

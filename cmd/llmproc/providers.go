package main

import (
	"fmt"
	"os"

	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/internal/provider/anthropic"
	"github.com/llmproc/llmproc-go/internal/provider/gemini"
	"github.com/llmproc/llmproc-go/internal/provider/openai"
)

// buildProviderClient selects and constructs the provider.Client named by
// prog.Provider, reading credentials from the environment the way the
// teacher's cmd/nexus does for its own provider bootstrap (no credential
// ever lives in the program file itself).
func buildProviderClient(prog *program.Program) (provider.Client, error) {
	switch prog.Provider {
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:       os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:      os.Getenv("ANTHROPIC_BASE_URL"),
			DefaultModel: prog.Model,
		})
	case "anthropic-vertex":
		return anthropic.New(anthropic.Config{
			UseVertex:    true,
			DefaultModel: prog.Model,
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			BaseURL:      os.Getenv("OPENAI_BASE_URL"),
			DefaultModel: prog.Model,
		})
	case "gemini":
		return gemini.New(gemini.Config{
			APIKey:       os.Getenv("GOOGLE_API_KEY"),
			DefaultModel: prog.Model,
		})
	default:
		return nil, fmt.Errorf("llmproc: unknown provider %q", prog.Provider)
	}
}

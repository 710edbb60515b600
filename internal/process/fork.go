package process

import (
	"context"

	"github.com/google/uuid"

	"github.com/llmproc/llmproc-go/internal/executor"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// Fork implements the fork control tool (spec §4.5): for each prompt,
// deep-copies state and FD contents, revokes the child's fork permission
// (preventing unbounded fork trees), runs the child to completion with
// prompt as its user turn, and returns the children's final assistant
// texts in prompt order. Fork is denied once this process's own fork
// permission has already been revoked.
func (p *Process) Fork(ctx context.Context, prompts []string) ([]string, error) {
	if !p.forkAllowed {
		return nil, models.NewRunError(models.KindForkDenied, "fork permission already revoked for this process", nil)
	}

	out := make([]string, len(prompts))
	for i, prompt := range prompts {
		child, err := p.newForkChild()
		if err != nil {
			return nil, err
		}
		rr, err := executor.Run(ctx, child, prompt, executor.Callbacks{})
		if err != nil {
			return nil, err
		}
		out[i] = rr.LastAssistantText
	}
	return out, nil
}

// newForkChild builds one fork child sharing this process's Program and
// provider client but owning independent state and FD content (P4), with
// forkAllowed=false.
func (p *Process) newForkChild() (*Process, error) {
	child := &Process{
		id:           uuid.NewString(),
		prog:         p.prog,
		client:       p.client,
		env:          p.env,
		binder:       p.binder,
		state:        p.state.DeepCopy(),
		fds:          p.fds.DeepCopy(),
		children:     make(map[string]*Process),
		forkAllowed:  false,
		systemPrompt: p.systemPrompt,
	}
	tools, err := p.binder(child)
	if err != nil {
		return nil, models.NewRunError(models.KindConfigError, "binding fork child tools", err)
	}
	child.tools = tools
	return child, nil
}

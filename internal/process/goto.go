package process

import (
	"fmt"

	"github.com/llmproc/llmproc-go/pkg/models"
)

// Goto implements the goto control tool (spec §4.5, SPEC_FULL §12.1):
// truncates state at position, then appends a user message recording which
// messages were dropped and wrapping the replacement message in
// <time_travel> tags, so the model can self-correct.
func (p *Process) Goto(position int, message string) error {
	dropped := p.state.Len() - position
	if err := p.state.Truncate(position); err != nil {
		return models.NewRunError(models.KindToolExecError, "goto: invalid position", err)
	}
	wrapped := fmt.Sprintf(
		"<system_warning>jumped back to message %d; %d message(s) were dropped</system_warning>\n<time_travel>%s</time_travel>",
		position, dropped, message,
	)
	return p.state.Append(models.NewUserMessage(models.NewTextBlock(wrapped)))
}

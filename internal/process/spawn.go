package process

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/llmproc/llmproc-go/internal/executor"
	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// SpawnChild implements the spawn control tool (spec §4.5): resolves
// programName against the parent's linked-program table, instantiates it as
// a new Process (or reuses the instance already spawned under that name),
// preloads additionalPreloadFiles and the full content of
// additionalPreloadFDs into the child's preloaded content, runs it with
// query, and returns its final assistant text.
func (p *Process) SpawnChild(ctx context.Context, programName, query string, additionalPreloadFiles, additionalPreloadFDs []string) (string, error) {
	linked, ok := p.prog.LinkedPrograms[programName]
	if !ok {
		return "", models.NewRunError(models.KindToolExecError, spawnNotFoundMessage(programName, p.prog.LinkedPrograms), nil)
	}

	child, isNew, err := p.childFor(programName, linked)
	if err != nil {
		return "", err
	}

	if len(additionalPreloadFiles) > 0 || len(additionalPreloadFDs) > 0 {
		extra, err := p.extraPreloadContent(additionalPreloadFiles, additionalPreloadFDs)
		if err != nil {
			return "", err
		}
		if extra != "" {
			child.systemPrompt += extra
		}
	}

	rr, err := executor.Run(ctx, child, query, executor.Callbacks{})
	if err != nil {
		return "", err
	}
	if isNew {
		p.children[programName] = child
	}
	return rr.LastAssistantText, nil
}

func (p *Process) childFor(programName string, linked program.LinkedProgram) (child *Process, isNew bool, err error) {
	if existing, ok := p.children[programName]; ok {
		return existing, false, nil
	}
	child, err = Start(linked.Program, p.client, p.env, p.binder)
	if err != nil {
		return nil, false, err
	}
	return child, true, nil
}

// extraPreloadContent reads additionalPreloadFiles from disk and the full
// content of additionalPreloadFDs from the parent's FD manager (only valid
// when the parent's FD system is enabled), rendering both as <preload>
// blocks to append to the child's enriched system prompt.
func (p *Process) extraPreloadContent(files, fdIDs []string) (string, error) {
	var b strings.Builder

	preloaded, err := readPreloadFiles(files)
	if err != nil {
		return "", models.NewRunError(models.KindConfigError, "preloading spawn files", err)
	}
	for _, f := range preloaded {
		fmt.Fprintf(&b, "\n\n<preload path=%q>\n%s\n</preload>", f.Path, f.Content)
	}

	for _, id := range fdIDs {
		f, ok := p.fds.Get(id)
		if !ok {
			return "", models.NewRunError(models.KindFDError, fmt.Sprintf("spawn: referenced fd %q not found", id), nil)
		}
		fmt.Fprintf(&b, "\n\n<preload fd=%q>\n%s\n</preload>", id, f.Content)
	}

	return b.String(), nil
}

func spawnNotFoundMessage(name string, linked map[string]program.LinkedProgram) string {
	if len(linked) == 0 {
		return fmt.Sprintf("spawn: program %q is not linked; no linked programs are configured", name)
	}
	names := make([]string, 0, len(linked))
	for n, lp := range linked {
		names = append(names, fmt.Sprintf("%s (%s)", n, lp.Description))
	}
	sort.Strings(names)
	return fmt.Sprintf("spawn: program %q is not linked; available: %s", name, strings.Join(names, ", "))
}

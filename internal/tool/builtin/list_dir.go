package builtin

import (
	"context"
	"os"
	"strings"

	"github.com/llmproc/llmproc-go/internal/tool"
	"github.com/llmproc/llmproc-go/internal/tool/funcschema"
)

type listDirParams struct {
	Path string `json:"path,omitempty"`
}

func registerListDir(r *tool.Registry) error {
	t, err := funcschema.FromFunc(
		"list_dir",
		"Lists the entries of a directory relative to the working directory.",
		map[string]string{"path": `Directory to list, relative to the working directory. Empty string means "."`},
		func(ctx context.Context, p listDirParams) (string, error) {
			rel := p.Path
			if rel == "" {
				rel = "."
			}
			abs, err := safeJoin(rel)
			if err != nil {
				return "", err
			}
			entries, err := os.ReadDir(abs)
			if err != nil {
				return "", err
			}
			var b strings.Builder
			for _, e := range entries {
				if e.IsDir() {
					b.WriteString(e.Name() + "/\n")
				} else {
					b.WriteString(e.Name() + "\n")
				}
			}
			return b.String(), nil
		},
	)
	if err != nil {
		return err
	}
	r.Register(t)
	return nil
}

package builtin

import (
	"context"
	"os"

	"github.com/llmproc/llmproc-go/internal/tool"
	"github.com/llmproc/llmproc-go/internal/tool/funcschema"
)

type readFileParams struct {
	Path string `json:"path"`
}

func registerReadFile(r *tool.Registry) error {
	t, err := funcschema.FromFunc(
		"read_file",
		"Reads the full contents of a text file relative to the working directory.",
		map[string]string{"path": "Path to the file, relative to the working directory."},
		func(ctx context.Context, p readFileParams) (string, error) {
			abs, err := safeJoin(p.Path)
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	)
	if err != nil {
		return err
	}
	r.Register(t)
	return nil
}

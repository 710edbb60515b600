package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// safeJoin resolves rel against the process's current working directory and
// rejects any path that escapes it, so read_file/list_dir cannot be used to
// read arbitrary filesystem locations via "..".
func safeJoin(rel string) (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}

	joined := filepath.Join(root, rel)
	joined, err = filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", rel, err)
	}

	if joined != root && !strings.HasPrefix(joined, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the working directory", rel)
	}
	return joined, nil
}

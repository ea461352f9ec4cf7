package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CleanPath resolves a config file path to a clean absolute path.
// Relative paths, including ones that climb out of the working directory,
// are resolved against it.
func CleanPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("invalid path: empty")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return abs, nil
}

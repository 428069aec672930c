package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/models/llm
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists reports whether path exists. Errors other than "not exist"
// (permission denied, for example) count as existing.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// ResolveModelPath turns a model reference into a file path. Absolute paths,
// '~' paths and paths that exist relative to the working directory are used
// as given; anything else is looked up inside modelsDir.
func ResolveModelPath(modelsDir, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty model reference")
	}
	p, err := ExpandHome(ref)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) || PathExists(p) {
		return p, nil
	}
	dir, err := ExpandHome(modelsDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p), nil
}

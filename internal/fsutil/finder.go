// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFilesByExtension lists the regular files directly inside dir whose name
// ends with extension, in lexical order. Dotfiles are skipped so editor swap
// files and similar never get included by accident.
func FindFilesByExtension(dir string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, extension) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

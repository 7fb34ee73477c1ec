package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/tyconf/internal/fsutil"
)

// DefaultExtension is the file extension picked up by directory includes.
const DefaultExtension = ".conf"

// Opener resolves the path of an include directive found in source from.
// A single path may expand to several sources, which are read in order.
type Opener interface {
	Open(from, path string) ([]LineSource, error)
}

// FileOpener opens includes from the local file system. Relative paths are
// resolved against the directory of the including file. A directory path
// includes every file in it that carries the configured extension.
//
// FileOpener remembers the bytes of every file it loaded so diagnostics can be
// rendered with source snippets.
type FileOpener struct {
	extension string
	files     map[string][]byte
}

// NewFileOpener returns an opener for files with the given extension. An
// empty extension selects DefaultExtension.
func NewFileOpener(extension string) *FileOpener {
	if extension == "" {
		extension = DefaultExtension
	}
	return &FileOpener{extension: extension, files: make(map[string][]byte)}
}

// Load reads the file at path and splits it into lines.
func (o *FileOpener) Load(path string) (*Lines, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	o.files[path] = data
	return FromString(path, string(data)), nil
}

// Open implements Opener.
func (o *FileOpener) Open(from, path string) ([]LineSource, error) {
	if path == "" {
		return nil, fmt.Errorf("include path is empty")
	}
	if !filepath.IsAbs(path) {
		if _, known := o.files[from]; known {
			path = filepath.Join(filepath.Dir(from), path)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot include %s: %w", path, err)
	}
	if !info.IsDir() {
		lines, err := o.Load(path)
		if err != nil {
			return nil, err
		}
		return []LineSource{lines}, nil
	}

	paths, err := fsutil.FindFilesByExtension(path, o.extension)
	if err != nil {
		return nil, err
	}
	out := make([]LineSource, 0, len(paths))
	for _, p := range paths {
		lines, err := o.Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, lines)
	}
	return out, nil
}

// Files returns the contents of every file loaded so far, keyed by the name
// used as its source label.
func (o *FileOpener) Files() map[string][]byte {
	return o.files
}

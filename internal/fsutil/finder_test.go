package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.conf", "a.conf", ".hidden.conf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.conf"), 0o755))

	files, err := FindFilesByExtension(dir, ".conf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.conf"), filepath.Join(dir, "b.conf")}, files)
}

func TestFindFilesByExtensionMissingDir(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "nope"), ".conf")
	require.Error(t, err)
}

func TestFindFilesByExtensionPanicsOnEmptyExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}

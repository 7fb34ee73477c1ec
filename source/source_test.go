package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(src LineSource) []Line {
	var out []Line
	for {
		l, ok := src.Next()
		if !ok {
			return out
		}
		out = append(out, l)
	}
}

func TestFromString(t *testing.T) {
	src := FromString("mem", "a\r\n\nbc\nlast")
	assert.Equal(t, "mem", src.Name())
	assert.Equal(t, 4, src.Len())

	want := []Line{
		{Number: 1, Text: "a", Offset: 0},
		{Number: 2, Text: "", Offset: 3},
		{Number: 3, Text: "bc", Offset: 4},
		{Number: 4, Text: "last", Offset: 7},
	}
	if diff := cmp.Diff(want, collect(src)); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestFromStringEmpty(t *testing.T) {
	assert.Empty(t, collect(FromString("mem", "")))
	assert.Len(t, collect(FromString("mem", "x\n")), 1)
}

func TestFromLines(t *testing.T) {
	want := []Line{
		{Number: 1, Text: "one\n", Offset: 0},
		{Number: 2, Text: "two", Offset: 5},
	}
	if diff := cmp.Diff(want, collect(FromLines("f", "one\n", "two"))); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestFileOpener(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.conf"), []byte("main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.conf"), []byte("other\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "parts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parts", "b.cfg"), []byte("b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parts", "a.cfg"), []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parts", "c.conf"), []byte("c\n"), 0o644))

	o := NewFileOpener(".cfg")
	main, err := o.Load(filepath.Join(dir, "main.conf"))
	require.NoError(t, err)

	t.Run("relative to including file", func(t *testing.T) {
		srcs, err := o.Open(main.Name(), "other.conf")
		require.NoError(t, err)
		require.Len(t, srcs, 1)
		assert.Equal(t, filepath.Join(dir, "other.conf"), srcs[0].Name())
	})

	t.Run("directory", func(t *testing.T) {
		srcs, err := o.Open(main.Name(), "parts")
		require.NoError(t, err)
		var names []string
		for _, s := range srcs {
			names = append(names, filepath.Base(s.Name()))
		}
		assert.Equal(t, []string{"a.cfg", "b.cfg"}, names)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := o.Open(main.Name(), "nope.conf")
		require.Error(t, err)
		_, err = o.Open(main.Name(), "")
		require.Error(t, err)
	})

	files := o.Files()
	assert.Equal(t, []byte("main\n"), files[filepath.Join(dir, "main.conf")])
	assert.Contains(t, files, filepath.Join(dir, "parts", "a.cfg"))
}

func TestNewFileOpenerDefaultExtension(t *testing.T) {
	assert.Equal(t, DefaultExtension, NewFileOpener("").extension)
}

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.h5"))
	writeFile(t, filepath.Join(dir, "sub", "b.h5"))
	writeFile(t, filepath.Join(dir, "sub", "notes.txt"))

	files, err := FindFilesByExtension(dir, ".h5")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.h5", filepath.Base(files[0]))
	assert.Equal(t, "b.h5", filepath.Base(files[1]))
}

func TestListFileNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.h5"))
	writeFile(t, filepath.Join(dir, "deep", "nested", "c.h5"))

	names, err := ListFileNames(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.h5", "c.h5"}, names)
}

func TestContainsSubdirectories(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.h5"))

		got, err := ContainsSubdirectories(dir)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("nested", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "sub", "a.h5"))

		got, err := ContainsSubdirectories(dir)
		require.NoError(t, err)
		assert.True(t, got)
	})
}

package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.hcl"))
	touch(t, filepath.Join(dir, "nested", "b.hcl"))
	touch(t, filepath.Join(dir, "nested", "c.yaml"))
	single := filepath.Join(dir, "nested", "b.hcl")

	files, err := FindFiles([]string{dir, single}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "nested", "b.hcl"),
	}, files)
}

func TestFindFiles_MissingPath(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.hcl"))
	missing := filepath.Join(dir, "missing.hcl")

	files, err := FindFiles([]string{dir, missing}, ".hcl")
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorContains(t, err, "error accessing path "+missing)
	assert.Nil(t, files)
}

func TestFindFiles_PlainFileWithOtherExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.yaml")
	touch(t, path)

	files, err := FindFiles([]string{path}, ".hcl")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindFiles_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFiles(nil, "") })
}

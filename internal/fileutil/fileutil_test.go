package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenvlab/oaskeyguard/oaserrors"
)

func TestWriteAtomic_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")

	require.NoError(t, WriteAtomic(path, []byte("openapi: 3.0.0\n"), OwnerReadWrite))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openapi: 3.0.0\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, OwnerReadWrite, info.Mode().Perm())
}

func TestWriteAtomic_ReplacesAndKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("old"), ReadableByAll))
	require.NoError(t, os.Chmod(path, ReadableByAll))

	require.NoError(t, WriteAtomic(path, []byte("new"), OwnerReadWrite))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, ReadableByAll, info.Mode().Perm())
}

func TestWriteAtomic_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, WriteAtomic(path, []byte("a"), OwnerReadWrite))
	require.NoError(t, WriteAtomic(path, []byte("b"), OwnerReadWrite))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "spec.yaml", entries[0].Name())
}

func TestWriteAtomic_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "spec.yaml")

	err := WriteAtomic(path, []byte("x"), OwnerReadWrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oaserrors.ErrWrite))

	var writeErr *oaserrors.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "create", writeErr.Op)
	assert.Equal(t, path, writeErr.Path)
}

func TestWriteAtomic_DirectoryDestination(t *testing.T) {
	dir := t.TempDir()

	err := WriteAtomic(dir, []byte("x"), OwnerReadWrite)
	require.Error(t, err)
	assert.ErrorIs(t, err, oaserrors.ErrWrite)
}

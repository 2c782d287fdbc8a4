package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRemoveTempFile(t *testing.T) {
	s := openTestStorage(t)
	require.NoError(t, s.AddTempFile("/tmp/orphan.part"))

	files, err := s.GetAllTempFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/orphan.part"}, files)

	require.NoError(t, s.RemoveTempFile("/tmp/orphan.part"))
	files, err = s.GetAllTempFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCleanupTempFilesUnlinksAndDropsMissingRows(t *testing.T) {
	s := openTestStorage(t)
	dir := t.TempDir()
	existing := filepath.Join(dir, "exists.part")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))
	missing := filepath.Join(dir, "already-gone.part")

	require.NoError(t, s.AddTempFile(existing))
	require.NoError(t, s.AddTempFile(missing))

	n, err := s.CleanupTempFiles()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, statErr := os.Stat(existing)
	assert.True(t, os.IsNotExist(statErr))

	files, err := s.GetAllTempFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

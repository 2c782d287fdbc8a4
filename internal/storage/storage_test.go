package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

func openTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kabegame.db")
	s, err := storage.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRunsMigrationsIdempotently(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kabegame.db")
	s1, err := storage.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	albums, err := s2.GetAlbums()
	require.NoError(t, err)
	require.Len(t, albums, 1)
}

func mustRecordImageForTask(t *testing.T, s *storage.Storage, id types.ImageID, createdAt int64, taskID types.TaskID) types.Image {
	t.Helper()
	img := types.Image{
		ID:        id,
		Path:      "/tmp/" + string(id) + ".png",
		PluginID:  "demo-plugin",
		TaskID:    taskID,
		CreatedAt: createdAt,
		FileName:  string(id) + ".png",
	}
	require.NoError(t, s.RecordImage(img))
	return img
}

func TestOpenEnsuresFavoriteAlbumAndSettingsRow(t *testing.T) {
	s := openTestStorage(t)

	albums, err := s.GetAlbums()
	require.NoError(t, err)
	require.Len(t, albums, 1)
	require.Equal(t, "favorites", string(albums[0].ID))

	settings, err := s.GetSettings()
	require.NoError(t, err)
	require.False(t, settings.AutoDedupe)
	require.Nil(t, settings.CurrentWallpaperImageID)
	require.Nil(t, settings.RotationAlbumID)
}

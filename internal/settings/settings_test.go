package settings_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/settings"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

func openTestService(t *testing.T) (*settings.Service, *storage.Storage) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "kabegame.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return settings.New(store), store
}

func TestGetReturnsDefaults(t *testing.T) {
	svc, _ := openTestService(t)
	cur, err := svc.Get()
	require.NoError(t, err)
	assert.False(t, cur.AutoDedupe)
	assert.Nil(t, cur.CurrentWallpaperImageID)
	assert.Nil(t, cur.RotationAlbumID)
}

func TestSetCurrentWallpaperRoundTrips(t *testing.T) {
	svc, store := openTestService(t)
	require.NoError(t, store.RecordImage(types.Image{ID: "img-1", Path: "/tmp/img-1.png", CreatedAt: 1, FileName: "img-1.png"}))

	id := types.ImageID("img-1")
	require.NoError(t, svc.SetCurrentWallpaper(&id))

	got, err := svc.CurrentWallpaper()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	require.NoError(t, svc.SetCurrentWallpaper(nil))
	got, err = svc.CurrentWallpaper()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetAutoDedupeRoundTrips(t *testing.T) {
	svc, _ := openTestService(t)
	require.NoError(t, svc.SetAutoDedupe(true))
	enabled, err := svc.AutoDedupe()
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestSetRotationAlbumRoundTrips(t *testing.T) {
	svc, store := openTestService(t)
	album, err := store.AddAlbum("Rotation")
	require.NoError(t, err)

	require.NoError(t, svc.SetRotationAlbum(&album.ID))
	got, err := svc.RotationAlbum()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, album.ID, *got)
}

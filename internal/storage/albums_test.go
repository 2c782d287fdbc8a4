package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

func TestAddAlbumRejectsCaseInsensitiveClash(t *testing.T) {
	s := openTestStorage(t)
	_, err := s.AddAlbum("Trips")
	require.NoError(t, err)

	_, err = s.AddAlbum("trips")
	assert.Equal(t, errorx.AlreadyExists, errorx.KindOf(err))
}

func TestDeleteAlbumForbidsFavorites(t *testing.T) {
	s := openTestStorage(t)
	err := s.DeleteAlbum(types.FavoriteAlbumID)
	assert.Equal(t, errorx.Forbidden, errorx.KindOf(err))
}

func TestDeleteAlbumClearsRotationAlbum(t *testing.T) {
	s := openTestStorage(t)
	album, err := s.AddAlbum("Rotation")
	require.NoError(t, err)
	require.NoError(t, s.SetRotationAlbumID(&album.ID))

	require.NoError(t, s.DeleteAlbum(album.ID))

	settings, err := s.GetSettings()
	require.NoError(t, err)
	assert.Nil(t, settings.RotationAlbumID)
}

func TestRenameAlbumForbidsFavoritesAndClashes(t *testing.T) {
	s := openTestStorage(t)
	a, err := s.AddAlbum("Alpha")
	require.NoError(t, err)
	_, err = s.AddAlbum("Beta")
	require.NoError(t, err)

	err = s.RenameAlbum(types.FavoriteAlbumID, "renamed")
	assert.Equal(t, errorx.Forbidden, errorx.KindOf(err))

	err = s.RenameAlbum(a.ID, "beta")
	assert.Equal(t, errorx.AlreadyExists, errorx.KindOf(err))

	require.NoError(t, s.RenameAlbum(a.ID, "Alpha Renamed"))
	name, err := s.GetAlbumNameByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha Renamed", name)
}

func TestAddImagesToAlbumIsIdempotent(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImage(t, s, "img-1", 100)
	mustRecordImage(t, s, "img-2", 200)
	album, err := s.AddAlbum("Gallery")
	require.NoError(t, err)

	added, err := s.AddImagesToAlbum(album.ID, []types.ImageID{"img-1", "img-2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.ImageID{"img-1", "img-2"}, added)

	added, err = s.AddImagesToAlbum(album.ID, []types.ImageID{"img-1", "img-2"})
	require.NoError(t, err)
	assert.Empty(t, added)

	ids, err := s.GetAlbumImageIDs(album.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ImageID{"img-1", "img-2"}, ids)
}

func TestRemoveImagesFromAlbumReturnsRemovedCount(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImage(t, s, "img-1", 100)
	album, err := s.AddAlbum("Gallery")
	require.NoError(t, err)
	_, err = s.AddImagesToAlbum(album.ID, []types.ImageID{"img-1"})
	require.NoError(t, err)

	n, err := s.RemoveImagesFromAlbum(album.ID, []types.ImageID{"img-1", "img-missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.FindImageByID("img-1")
	require.NoError(t, err, "removing from an album must not delete the image")
}

func TestGetAlbumCounts(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImage(t, s, "img-1", 100)
	mustRecordImage(t, s, "img-2", 200)
	album, err := s.AddAlbum("Gallery")
	require.NoError(t, err)
	_, err = s.AddImagesToAlbum(album.ID, []types.ImageID{"img-1", "img-2"})
	require.NoError(t, err)

	counts, err := s.GetAlbumCounts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[album.ID])
}

func TestUpdateAlbumImagesOrder(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImage(t, s, "img-1", 100)
	mustRecordImage(t, s, "img-2", 200)
	album, err := s.AddAlbum("Gallery")
	require.NoError(t, err)
	_, err = s.AddImagesToAlbum(album.ID, []types.ImageID{"img-1", "img-2"})
	require.NoError(t, err)

	err = s.UpdateAlbumImagesOrder(album.ID, []storage.AlbumImageOrder{
		{ImageID: "img-1", Order: 5},
		{ImageID: "img-2", Order: 1},
	})
	require.NoError(t, err)

	ids, err := s.GetAlbumImageIDs(album.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ImageID{"img-2", "img-1"}, ids)
}

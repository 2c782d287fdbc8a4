package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

func mustRecordImageWithHash(t *testing.T, s *storage.Storage, id types.ImageID, createdAt int64, hash string) {
	t.Helper()
	img := mustRecordImage(t, s, id, createdAt)
	if hash != "" {
		require.NoError(t, s.SetImageHash(img.ID, hash))
	}
}

func TestGetDedupeTotalHashImagesCountIgnoresEmptyHash(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImageWithHash(t, s, "img-1", 100, "hash-a")
	mustRecordImageWithHash(t, s, "img-2", 200, "")

	n, err := s.GetDedupeTotalHashImagesCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetDedupeBatchZeroLimitReturnsEmpty(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImageWithHash(t, s, "img-1", 100, "hash-a")

	rows, err := s.GetDedupeBatch(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetDedupeBatchPagesStrictlyIncreasing(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImageWithHash(t, s, "img-1", 100, "hash-a")
	mustRecordImageWithHash(t, s, "img-2", 200, "hash-b")
	mustRecordImageWithHash(t, s, "img-3", 300, "hash-c")

	first, err := s.GetDedupeBatch(nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, types.ImageID("img-1"), first[0].ID)
	assert.Equal(t, types.ImageID("img-2"), first[1].ID)

	cursor := first[1].Cursor()
	second, err := s.GetDedupeBatch(&cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, types.ImageID("img-3"), second[0].ID)
}

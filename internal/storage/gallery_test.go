package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetGalleryDateGroups(t *testing.T) {
	s := openTestStorage(t)
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC).Unix()
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Unix()
	mustRecordImage(t, s, "img-jan", jan)
	mustRecordImage(t, s, "img-feb", feb)

	months, err := s.GetGalleryDateGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02", "2026-01"}, months)
}

func TestGetGalleryPluginGroups(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImage(t, s, "img-1", 100)

	plugins, err := s.GetGalleryPluginGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"demo-plugin"}, plugins)
}

func TestGetGalleryTaskGroups(t *testing.T) {
	s := openTestStorage(t)
	mustRecordImageForTask(t, s, "img-1", 100, "task-older")
	mustRecordImageForTask(t, s, "img-2", 200, "task-newer")

	tasks, err := s.GetGalleryTaskGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"task-newer", "task-older"}, tasks)
}

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

func TestRunConfigCRUD(t *testing.T) {
	s := openTestStorage(t)
	cfg := types.RunConfig{
		ID:         "cfg-1",
		Name:       "Daily Wallpapers",
		PluginID:   "demo-plugin",
		URL:        "https://example.com/feed",
		OutputDir:  "/tmp/out",
		UserConfig: map[string]string{"quality": "high"},
		CreatedAt:  100,
	}
	require.NoError(t, s.AddRunConfig(cfg))

	got, err := s.GetRunConfig("cfg-1")
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, got.Name)
	assert.Equal(t, "high", got.UserConfig["quality"])

	all, err := s.GetRunConfigs()
	require.NoError(t, err)
	require.Len(t, all, 1)

	got.Name = "Renamed"
	require.NoError(t, s.UpdateRunConfig(got))
	updated, err := s.GetRunConfig("cfg-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, s.DeleteRunConfig("cfg-1"))
	_, err = s.GetRunConfig("cfg-1")
	assert.Equal(t, errorx.NotFound, errorx.KindOf(err))
}

func TestDeleteRunConfigNotFound(t *testing.T) {
	s := openTestStorage(t)
	err := s.DeleteRunConfig("missing")
	assert.Equal(t, errorx.NotFound, errorx.KindOf(err))
}

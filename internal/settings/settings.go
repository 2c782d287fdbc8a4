// Package settings exposes the single persisted Settings row (current
// wallpaper, auto-dedupe preference, rotation album) as a small typed API
// over internal/storage, mirroring how daemon/src/dedupe_service.rs treats
// settings as a handful of named getters/setters rather than raw SQL.
package settings

import (
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// Service is a thin, storage-backed view over the settings row.
type Service struct {
	store *storage.Storage
}

// New wraps store.
func New(store *storage.Storage) *Service {
	return &Service{store: store}
}

// Get returns the current settings.
func (s *Service) Get() (types.Settings, error) {
	return s.store.GetSettings()
}

// SetCurrentWallpaper sets the current wallpaper image id. Pass nil to
// clear it.
func (s *Service) SetCurrentWallpaper(id *types.ImageID) error {
	return s.store.SetCurrentWallpaperImageID(id)
}

// CurrentWallpaper returns the current wallpaper image id, if any.
func (s *Service) CurrentWallpaper() (*types.ImageID, error) {
	cur, err := s.store.GetSettings()
	if err != nil {
		return nil, err
	}
	return cur.CurrentWallpaperImageID, nil
}

// SetAutoDedupe enables or disables automatic deduplication after imports.
func (s *Service) SetAutoDedupe(enabled bool) error {
	return s.store.SetAutoDedupe(enabled)
}

// AutoDedupe reports whether automatic deduplication is enabled.
func (s *Service) AutoDedupe() (bool, error) {
	cur, err := s.store.GetSettings()
	if err != nil {
		return false, err
	}
	return cur.AutoDedupe, nil
}

// SetRotationAlbum sets the album the wallpaper rotation draws from. Pass
// nil to clear it.
func (s *Service) SetRotationAlbum(id *types.AlbumID) error {
	return s.store.SetRotationAlbumID(id)
}

// RotationAlbum returns the current rotation album id, if any.
func (s *Service) RotationAlbum() (*types.AlbumID, error) {
	cur, err := s.store.GetSettings()
	if err != nil {
		return nil, err
	}
	return cur.RotationAlbumID, nil
}

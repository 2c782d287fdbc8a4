package storage

import (
	"database/sql"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

type settingsRow struct {
	CurrentWallpaperImageID sql.NullString `db:"current_wallpaper_image_id"`
	AutoDedupe              bool           `db:"auto_dedupe"`
	RotationAlbumID         sql.NullString `db:"rotation_album_id"`
}

// GetSettings returns the single persisted settings row.
func (s *Storage) GetSettings() (types.Settings, error) {
	var row settingsRow
	err := s.db.Get(&row,
		`SELECT current_wallpaper_image_id, auto_dedupe, rotation_album_id FROM settings WHERE id = 1`,
	)
	if err != nil {
		return types.Settings{}, errorx.Wrap(errorx.Storage, "get settings", err)
	}
	out := types.Settings{AutoDedupe: row.AutoDedupe}
	if row.CurrentWallpaperImageID.Valid {
		id := types.ImageID(row.CurrentWallpaperImageID.String)
		out.CurrentWallpaperImageID = &id
	}
	if row.RotationAlbumID.Valid {
		id := types.AlbumID(row.RotationAlbumID.String)
		out.RotationAlbumID = &id
	}
	return out, nil
}

// SetCurrentWallpaperImageID sets (or clears, with nil) the current
// wallpaper pointer. Batch image removal clears it directly, in the same
// transaction as the row deletions, rather than going through this method.
func (s *Storage) SetCurrentWallpaperImageID(id *types.ImageID) error {
	return s.withWrite("set current wallpaper image id", func() error {
		var arg any
		if id != nil {
			arg = string(*id)
		}
		_, err := s.db.Exec(`UPDATE settings SET current_wallpaper_image_id = ? WHERE id = 1`, arg)
		return err
	})
}

// SetAutoDedupe updates the auto-dedupe preference flag.
func (s *Storage) SetAutoDedupe(enabled bool) error {
	return s.withWrite("set auto dedupe", func() error {
		_, err := s.db.Exec(`UPDATE settings SET auto_dedupe = ? WHERE id = 1`, enabled)
		return err
	})
}

// SetRotationAlbumID sets (or clears, with nil) the rotation album
// pointer.
func (s *Storage) SetRotationAlbumID(id *types.AlbumID) error {
	return s.withWrite("set rotation album id", func() error {
		var arg any
		if id != nil {
			arg = string(*id)
		}
		_, err := s.db.Exec(`UPDATE settings SET rotation_album_id = ? WHERE id = 1`, arg)
		return err
	})
}

package storage

import (
	"time"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

func (s *Storage) ensureFavoriteAlbum() error {
	var count int
	if err := s.db.Get(&count, `SELECT COUNT(1) FROM albums WHERE id = ?`, string(types.FavoriteAlbumID)); err != nil {
		return errorx.Wrap(errorx.Storage, "check favorites album", err)
	}
	if count > 0 {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO albums (id, name, created_at) VALUES (?, ?, ?)`,
		string(types.FavoriteAlbumID), "Favorites", time.Now().Unix(),
	)
	if err != nil {
		return errorx.Wrap(errorx.Storage, "create favorites album", err)
	}
	return nil
}

func (s *Storage) ensureSettingsRow() error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO settings (id, auto_dedupe) VALUES (1, 0)`)
	if err != nil {
		return errorx.Wrap(errorx.Storage, "create settings row", err)
	}
	return nil
}

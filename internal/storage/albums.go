package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

type albumRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

func (r albumRow) toAlbum() types.Album {
	return types.Album{ID: types.AlbumID(r.ID), Name: r.Name, CreatedAt: r.CreatedAt}
}

// GetAlbums returns every album, oldest first.
func (s *Storage) GetAlbums() ([]types.Album, error) {
	var rows []albumRow
	err := s.db.Select(&rows, `SELECT id, name, created_at FROM albums ORDER BY created_at ASC`)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get albums", err)
	}
	out := make([]types.Album, len(rows))
	for i, r := range rows {
		out[i] = r.toAlbum()
	}
	return out, nil
}

// AddAlbum creates a new album named name, failing with AlreadyExists if
// another album has the same name case-insensitively.
func (s *Storage) AddAlbum(name string) (types.Album, error) {
	if _, err := s.FindAlbumIDByNameCI(name); err == nil {
		return types.Album{}, errorx.New(errorx.AlreadyExists, "album name already in use")
	}

	album := types.Album{ID: types.AlbumID(uuid.NewString()), Name: name, CreatedAt: time.Now().Unix()}
	err := s.withWrite("add album", func() error {
		_, err := s.db.Exec(
			`INSERT INTO albums (id, name, created_at) VALUES (?, ?, ?)`,
			string(album.ID), album.Name, album.CreatedAt,
		)
		return err
	})
	if err != nil {
		return types.Album{}, err
	}
	return album, nil
}

// DeleteAlbum removes album id and its memberships, failing with Forbidden
// for the reserved Favorites album. Member images are not deleted.
func (s *Storage) DeleteAlbum(id types.AlbumID) error {
	if id == types.FavoriteAlbumID {
		return errorx.New(errorx.Forbidden, "cannot delete the favorites album")
	}
	return s.withWrite("delete album", func() error {
		res, err := s.db.Exec(`DELETE FROM albums WHERE id = ?`, string(id))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "album not found")
		}
		_, err = s.db.Exec(`UPDATE settings SET rotation_album_id = NULL WHERE id = 1 AND rotation_album_id = ?`, string(id))
		return err
	})
}

// RenameAlbum renames album id, failing with Forbidden for Favorites or
// AlreadyExists on a case-insensitive name clash.
func (s *Storage) RenameAlbum(id types.AlbumID, newName string) error {
	if id == types.FavoriteAlbumID {
		return errorx.New(errorx.Forbidden, "cannot rename the favorites album")
	}
	if existing, err := s.FindAlbumIDByNameCI(newName); err == nil && existing != id {
		return errorx.New(errorx.AlreadyExists, "album name already in use")
	}
	return s.withWrite("rename album", func() error {
		res, err := s.db.Exec(`UPDATE albums SET name = ? WHERE id = ?`, newName, string(id))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "album not found")
		}
		return nil
	})
}

// AddImagesToAlbum inserts (album, image) memberships idempotently,
// returning the ids that were newly added (ids already present are
// silently skipped).
func (s *Storage) AddImagesToAlbum(id types.AlbumID, imageIDs []types.ImageID) ([]types.ImageID, error) {
	if len(imageIDs) == 0 {
		return nil, nil
	}
	var added []types.ImageID
	err := s.withWrite("add images to album", func() error {
		var nextOrder int
		if err := s.db.Get(&nextOrder, `SELECT COALESCE(MAX(order_key) + 1, 0) FROM album_images WHERE album_id = ?`, string(id)); err != nil {
			return err
		}
		for _, imgID := range imageIDs {
			res, err := s.db.Exec(
				`INSERT OR IGNORE INTO album_images (album_id, image_id, order_key) VALUES (?, ?, ?)`,
				string(id), string(imgID), nextOrder,
			)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				added = append(added, imgID)
				nextOrder++
			}
		}
		return nil
	})
	return added, err
}

// RemoveImagesFromAlbum deletes the given memberships, returning the
// number of rows actually removed. The member images themselves are not
// touched.
func (s *Storage) RemoveImagesFromAlbum(id types.AlbumID, imageIDs []types.ImageID) (int, error) {
	if len(imageIDs) == 0 {
		return 0, nil
	}
	var removed int
	err := s.withWrite("remove images from album", func() error {
		for _, imgID := range imageIDs {
			res, err := s.db.Exec(
				`DELETE FROM album_images WHERE album_id = ? AND image_id = ?`,
				string(id), string(imgID),
			)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			removed += int(n)
		}
		return nil
	})
	return removed, err
}

// GetAlbumImages returns the images in album id, in album order.
func (s *Storage) GetAlbumImages(id types.AlbumID) ([]types.Image, error) {
	var rows []imageRow
	err := s.db.Select(&rows,
		`SELECT `+qualifiedImageColumns+` FROM images i
		 JOIN album_images ai ON ai.image_id = i.id
		 WHERE ai.album_id = ?
		 ORDER BY ai.order_key ASC`,
		string(id),
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get album images", err)
	}
	return toImages(rows), nil
}

// GetAlbumImageIDs returns the image ids in album id, in album order.
func (s *Storage) GetAlbumImageIDs(id types.AlbumID) ([]types.ImageID, error) {
	var ids []string
	err := s.db.Select(&ids,
		`SELECT image_id FROM album_images WHERE album_id = ? ORDER BY order_key ASC`,
		string(id),
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get album image ids", err)
	}
	out := make([]types.ImageID, len(ids))
	for i, v := range ids {
		out[i] = types.ImageID(v)
	}
	return out, nil
}

// GetAlbumPreview returns up to limit images from album id, in album order.
func (s *Storage) GetAlbumPreview(id types.AlbumID, limit int) ([]types.Image, error) {
	var rows []imageRow
	err := s.db.Select(&rows,
		`SELECT `+qualifiedImageColumns+` FROM images i
		 JOIN album_images ai ON ai.image_id = i.id
		 WHERE ai.album_id = ?
		 ORDER BY ai.order_key ASC
		 LIMIT ?`,
		string(id), limit,
	)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get album preview", err)
	}
	return toImages(rows), nil
}

// GetAlbumCounts returns the member count of every album, keyed by id.
func (s *Storage) GetAlbumCounts() (map[types.AlbumID]int, error) {
	rows, err := s.db.Queryx(`SELECT album_id, COUNT(1) AS c FROM album_images GROUP BY album_id`)
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get album counts", err)
	}
	defer rows.Close()

	out := make(map[types.AlbumID]int)
	for rows.Next() {
		var albumID string
		var count int
		if err := rows.Scan(&albumID, &count); err != nil {
			return nil, errorx.Wrap(errorx.Storage, "get album counts", err)
		}
		out[types.AlbumID(albumID)] = count
	}
	return out, rows.Err()
}

// AlbumImageOrder pairs an image id with its new order key, as accepted
// by UpdateAlbumImagesOrder.
type AlbumImageOrder struct {
	ImageID types.ImageID
	Order   int
}

// UpdateAlbumImagesOrder rewrites the order_key of every (image, order)
// pair supplied, inside one transaction.
func (s *Storage) UpdateAlbumImagesOrder(id types.AlbumID, order []AlbumImageOrder) error {
	return s.withWrite("update album images order", func() error {
		tx, err := s.db.Beginx()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, o := range order {
			if _, err := tx.Exec(
				`UPDATE album_images SET order_key = ? WHERE album_id = ? AND image_id = ?`,
				o.Order, string(id), string(o.ImageID),
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// FindAlbumIDByNameCI resolves name to an album id, matching
// case-insensitively, or returns a NotFound error.
func (s *Storage) FindAlbumIDByNameCI(name string) (types.AlbumID, error) {
	var id string
	err := s.db.Get(&id, `SELECT id FROM albums WHERE name = ? COLLATE NOCASE`, name)
	if err == sql.ErrNoRows {
		return "", errorx.New(errorx.NotFound, "album not found")
	}
	if err != nil {
		return "", errorx.Wrap(errorx.Storage, "find album id by name", err)
	}
	return types.AlbumID(id), nil
}

// GetAlbumNameByID returns album id's display name, or a NotFound error.
func (s *Storage) GetAlbumNameByID(id types.AlbumID) (string, error) {
	var name string
	err := s.db.Get(&name, `SELECT name FROM albums WHERE id = ?`, string(id))
	if err == sql.ErrNoRows {
		return "", errorx.New(errorx.NotFound, "album not found")
	}
	if err != nil {
		return "", errorx.Wrap(errorx.Storage, "get album name by id", err)
	}
	return name, nil
}

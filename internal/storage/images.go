package storage

import (
	"database/sql"
	"os"
	"strings"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/query"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// imageRow mirrors the images table layout for sqlx scanning.
type imageRow struct {
	ID        string `db:"id"`
	Path      string `db:"path"`
	Hash      string `db:"hash"`
	PluginID  string `db:"plugin_id"`
	TaskID    string `db:"task_id"`
	CreatedAt int64  `db:"created_at"`
	Favorite  bool   `db:"favorite"`
	Size      int64  `db:"size"`
	Width     *int   `db:"width"`
	Height    *int   `db:"height"`
	FileName  string `db:"file_name"`
}

func (r imageRow) toImage() types.Image {
	return types.Image{
		ID:        types.ImageID(r.ID),
		Path:      r.Path,
		Hash:      r.Hash,
		PluginID:  r.PluginID,
		TaskID:    types.TaskID(r.TaskID),
		CreatedAt: r.CreatedAt,
		Favorite:  r.Favorite,
		Size:      r.Size,
		Width:     r.Width,
		Height:    r.Height,
		FileName:  r.FileName,
	}
}

const imageColumns = "id, path, hash, plugin_id, task_id, created_at, favorite, size, width, height, file_name"

// GetAllImages returns every image, most recent first.
func (s *Storage) GetAllImages() ([]types.Image, error) {
	var rows []imageRow
	err := s.db.Select(&rows, query.AllRecent().SelectFrom(imageColumns))
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get all images", err)
	}
	return toImages(rows), nil
}

// PaginatedImages is the result of GetImagesPaginated.
type PaginatedImages struct {
	Items    []types.Image
	Total    int
	Page     int
	PageSize int
}

// GetImagesPaginated returns page (1-based) of pageSize images, most
// recent first. pageSize must be positive.
func (s *Storage) GetImagesPaginated(page, pageSize int) (PaginatedImages, error) {
	if pageSize <= 0 {
		return PaginatedImages{}, errorx.New(errorx.InvalidInput, "page_size must be positive")
	}
	if page < 1 {
		page = 1
	}
	total, err := s.GetTotalCount()
	if err != nil {
		return PaginatedImages{}, err
	}
	offset := (page - 1) * pageSize
	items, err := s.GetImagesRange(offset, pageSize)
	if err != nil {
		return PaginatedImages{}, err
	}
	return PaginatedImages{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetImagesRange returns limit images starting at offset, most recent
// first.
func (s *Storage) GetImagesRange(offset, limit int) ([]types.Image, error) {
	var rows []imageRow
	stmt := query.AllRecent().SelectFrom(imageColumns) + " LIMIT ? OFFSET ?"
	if err := s.db.Select(&rows, stmt, limit, offset); err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get images range", err)
	}
	return toImages(rows), nil
}

// RecordImage inserts a new image row. This is the one write path the core
// exposes to its outside-core ingestion caller (a plugin run having just
// written a file to disk); every other image mutation acts on a row
// RecordImage already created.
func (s *Storage) RecordImage(img types.Image) error {
	return s.withWrite("record image", func() error {
		_, err := s.db.Exec(
			`INSERT INTO images (id, path, hash, plugin_id, task_id, created_at, favorite, size, width, height, file_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(img.ID), img.Path, img.Hash, img.PluginID, string(img.TaskID), img.CreatedAt,
			img.Favorite, img.Size, img.Width, img.Height, img.FileName,
		)
		return err
	})
}

// SetImageHash fills in the content hash computed after ingestion (images
// may be recorded with an empty hash before hashing completes).
func (s *Storage) SetImageHash(id types.ImageID, hash string) error {
	return s.withWrite("set image hash", func() error {
		res, err := s.db.Exec(`UPDATE images SET hash = ? WHERE id = ?`, hash, string(id))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errorx.New(errorx.NotFound, "image not found")
		}
		return nil
	})
}

// GetTotalCount returns the number of image rows.
func (s *Storage) GetTotalCount() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(1) FROM images`); err != nil {
		return 0, errorx.Wrap(errorx.Storage, "get total count", err)
	}
	return n, nil
}

// FindImageByID returns the image with id, or a NotFound error.
func (s *Storage) FindImageByID(id types.ImageID) (types.Image, error) {
	var row imageRow
	err := s.db.Get(&row, "SELECT "+imageColumns+" FROM images WHERE id = ?", string(id))
	if err == sql.ErrNoRows {
		return types.Image{}, errorx.New(errorx.NotFound, "image not found")
	}
	if err != nil {
		return types.Image{}, errorx.Wrap(errorx.Storage, "find image by id", err)
	}
	return row.toImage(), nil
}

// FindImageByPath returns the image whose resolved path equals path, or a
// NotFound error.
func (s *Storage) FindImageByPath(path string) (types.Image, error) {
	var row imageRow
	err := s.db.Get(&row, "SELECT "+imageColumns+" FROM images WHERE path = ?", path)
	if err == sql.ErrNoRows {
		return types.Image{}, errorx.New(errorx.NotFound, "image not found")
	}
	if err != nil {
		return types.Image{}, errorx.Wrap(errorx.Storage, "find image by path", err)
	}
	return row.toImage(), nil
}

// RemoveImage detaches image id from the library: the row and its album
// memberships are deleted, but the backing file is left untouched. If id
// was the current wallpaper, that setting is cleared in the same
// transaction.
func (s *Storage) RemoveImage(id types.ImageID) error {
	return s.withWrite("remove image", func() error {
		return s.removeImageRowsTx([]types.ImageID{id})
	})
}

// DeleteImage behaves like RemoveImage but additionally unlinks the
// backing file when the image is owned by the library (best-effort: a
// missing file is not an error).
func (s *Storage) DeleteImage(id types.ImageID) error {
	img, err := s.FindImageByID(id)
	if err != nil {
		return err
	}
	if err := s.RemoveImage(id); err != nil {
		return err
	}
	_ = os.Remove(img.Path)
	return nil
}

// BatchRemoveImages detaches every id in ids, clearing the current
// wallpaper setting if it names one of them.
func (s *Storage) BatchRemoveImages(ids []types.ImageID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withWrite("batch remove images", func() error {
		return s.removeImageRowsTx(ids)
	})
}

// BatchDeleteImages behaves like BatchRemoveImages but also unlinks each
// backing file (best-effort).
func (s *Storage) BatchDeleteImages(ids []types.ImageID) error {
	if len(ids) == 0 {
		return nil
	}
	paths := make(map[types.ImageID]string, len(ids))
	for _, id := range ids {
		if img, err := s.FindImageByID(id); err == nil {
			paths[id] = img.Path
		}
	}
	if err := s.BatchRemoveImages(ids); err != nil {
		return err
	}
	for _, p := range paths {
		_ = os.Remove(p)
	}
	return nil
}

// removeImageRowsTx deletes the given image rows (cascading album/task
// membership via foreign keys) and clears the wallpaper setting if it
// pointed at one of them, all inside one transaction.
func (s *Storage) removeImageRowsTx(ids []types.ImageID) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = string(id)
	}
	stmt := "DELETE FROM images WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	if _, err := tx.Exec(stmt, args...); err != nil {
		return err
	}

	var wallpaper sql.NullString
	if err := tx.Get(&wallpaper, `SELECT current_wallpaper_image_id FROM settings WHERE id = 1`); err != nil {
		return err
	}
	if wallpaper.Valid {
		for _, id := range ids {
			if wallpaper.String == string(id) {
				if _, err := tx.Exec(`UPDATE settings SET current_wallpaper_image_id = NULL WHERE id = 1`); err != nil {
					return err
				}
				break
			}
		}
	}

	return tx.Commit()
}

// ToggleImageFavorite sets or clears image id's favorite flag, keeping it
// synchronized with membership in the reserved Favorites album.
func (s *Storage) ToggleImageFavorite(id types.ImageID, favorite bool) error {
	return s.withWrite("toggle image favorite", func() error {
		tx, err := s.db.Beginx()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`UPDATE images SET favorite = ? WHERE id = ?`, favorite, string(id)); err != nil {
			return err
		}
		if favorite {
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO album_images (album_id, image_id, order_key) VALUES (?, ?, 0)`,
				string(types.FavoriteAlbumID), string(id),
			); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(
				`DELETE FROM album_images WHERE album_id = ? AND image_id = ?`,
				string(types.FavoriteAlbumID), string(id),
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// GetImagesCountByQuery returns the number of images matching q.
func (s *Storage) GetImagesCountByQuery(q query.ImageQuery) (int, error) {
	stmt := "SELECT COUNT(1) FROM images i"
	if q.Decorator != "" {
		stmt += " " + q.Decorator
	}
	var n int
	if err := s.db.Get(&n, stmt, q.Args...); err != nil {
		return 0, errorx.Wrap(errorx.Storage, "get images count by query", err)
	}
	return n, nil
}

// GetImagesInfoRangeByQuery returns limit images matching q starting at
// offset, in q's ordering.
func (s *Storage) GetImagesInfoRangeByQuery(q query.ImageQuery, offset, limit int) ([]types.Image, error) {
	stmt := q.SelectFrom(qualifiedImageColumns) + " LIMIT ? OFFSET ?"
	args := append(append([]any{}, q.Args...), limit, offset)
	var rows []imageRow
	if err := s.db.Select(&rows, stmt, args...); err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get images info range by query", err)
	}
	return toImages(rows), nil
}

// qualifiedImageColumns is imageColumns with an "i." prefix, needed once a
// query joins in another table (album_images) that could shadow a column
// name.
const qualifiedImageColumns = "i.id, i.path, i.hash, i.plugin_id, i.task_id, i.created_at, i.favorite, i.size, i.width, i.height, i.file_name"

// ResolveGalleryImagePath returns the on-disk path for imageID, or ("",
// false) if no such image exists.
func (s *Storage) ResolveGalleryImagePath(imageID types.ImageID) (string, bool) {
	img, err := s.FindImageByID(imageID)
	if err != nil {
		return "", false
	}
	return img.Path, true
}

// FsEntry is one file the Range/All providers present inside a virtual
// directory: a stable image id paired with its display name and resolved
// on-disk path.
type FsEntry struct {
	ImageID      types.ImageID
	FileName     string
	ResolvedPath string
}

// GetImagesFsEntriesByQuery returns count FsEntry values matching q
// starting at offset, in q's ordering — the primitive the Range provider's
// leaf enumeration is built on.
func (s *Storage) GetImagesFsEntriesByQuery(q query.ImageQuery, offset, count int) ([]FsEntry, error) {
	imgs, err := s.GetImagesInfoRangeByQuery(q, offset, count)
	if err != nil {
		return nil, err
	}
	entries := make([]FsEntry, len(imgs))
	for i, img := range imgs {
		entries[i] = FsEntry{ImageID: img.ID, FileName: img.FileName, ResolvedPath: img.Path}
	}
	return entries, nil
}

func toImages(rows []imageRow) []types.Image {
	out := make([]types.Image, len(rows))
	for i, r := range rows {
		out[i] = r.toImage()
	}
	return out
}

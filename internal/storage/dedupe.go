package storage

import (
	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// DedupeCursor is the opaque (created_at, id) pair defining strictly
// increasing scan order over hashed images.
type DedupeCursor struct {
	CreatedAt int64
	ID        types.ImageID
}

// DedupeRow is one row of a dedupe batch: just enough to partition
// duplicates by hash and to derive the next cursor.
type DedupeRow struct {
	ID        types.ImageID
	Hash      string
	CreatedAt int64
}

// Cursor returns the DedupeCursor a subsequent GetDedupeBatch call should
// resume after.
func (r DedupeRow) Cursor() DedupeCursor {
	return DedupeCursor{CreatedAt: r.CreatedAt, ID: r.ID}
}

// GetDedupeTotalHashImagesCount returns the number of images with a
// non-empty hash — the total a dedupe scan measures progress against.
func (s *Storage) GetDedupeTotalHashImagesCount() (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(1) FROM images WHERE hash != ''`)
	if err != nil {
		return 0, errorx.Wrap(errorx.Storage, "get dedupe total hash images count", err)
	}
	return n, nil
}

// GetDedupeBatch returns up to limit hashed images strictly after cursor,
// ordered by (created_at, id) ascending. A nil cursor starts from the
// beginning. limit <= 0 returns an empty batch.
func (s *Storage) GetDedupeBatch(cursor *DedupeCursor, limit int) ([]DedupeRow, error) {
	if limit <= 0 {
		return nil, nil
	}

	stmt := `SELECT id, hash, created_at FROM images WHERE hash != ''`
	var args []any
	if cursor != nil {
		stmt += ` AND (created_at > ? OR (created_at = ? AND id > ?))`
		args = append(args, cursor.CreatedAt, cursor.CreatedAt, string(cursor.ID))
	}
	stmt += ` ORDER BY created_at ASC, id ASC LIMIT ?`
	args = append(args, limit)

	var rows []struct {
		ID        string `db:"id"`
		Hash      string `db:"hash"`
		CreatedAt int64  `db:"created_at"`
	}
	if err := s.db.Select(&rows, stmt, args...); err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get dedupe batch", err)
	}

	out := make([]DedupeRow, len(rows))
	for i, r := range rows {
		out[i] = DedupeRow{ID: types.ImageID(r.ID), Hash: r.Hash, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

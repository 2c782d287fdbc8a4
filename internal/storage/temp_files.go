package storage

import (
	"os"
	"time"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
)

// AddTempFile records path as orphaned-extraction output to garbage
// collect on a future CleanupTempFiles pass.
func (s *Storage) AddTempFile(path string) error {
	return s.withWrite("add temp file", func() error {
		_, err := s.db.Exec(
			`INSERT OR REPLACE INTO temp_files (path, created_at) VALUES (?, ?)`,
			path, time.Now().Unix(),
		)
		return err
	})
}

// RemoveTempFile drops path from the tracked set without touching the
// file itself.
func (s *Storage) RemoveTempFile(path string) error {
	return s.withWrite("remove temp file", func() error {
		_, err := s.db.Exec(`DELETE FROM temp_files WHERE path = ?`, path)
		return err
	})
}

// GetAllTempFiles returns every tracked path.
func (s *Storage) GetAllTempFiles() ([]string, error) {
	var paths []string
	if err := s.db.Select(&paths, `SELECT path FROM temp_files`); err != nil {
		return nil, errorx.Wrap(errorx.Storage, "get all temp files", err)
	}
	return paths, nil
}

// CleanupTempFiles unlinks every tracked file and drops its row; a row
// whose file is already gone is dropped too. Returns the number of rows
// removed.
func (s *Storage) CleanupTempFiles() (int, error) {
	paths, err := s.GetAllTempFiles()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range paths {
		if err := os.Remove(p); err == nil {
			if err := s.RemoveTempFile(p); err == nil {
				count++
			}
		} else if _, statErr := os.Stat(p); os.IsNotExist(statErr) {
			if err := s.RemoveTempFile(p); err == nil {
				count++
			}
		}
	}
	return count, nil
}

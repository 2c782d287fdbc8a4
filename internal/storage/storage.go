// Package storage is the embedded relational store backing the Provider
// Tree: images, albums, album membership, tasks, run configs, temp files,
// and settings (spec §4.1). A single *sqlx.DB connection is shared by every
// accessor; writes serialize on writeMu the way the original's single
// rusqlite connection serialized behind a std::sync::Mutex.
package storage

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
)

// Storage is the shared handle every accessor method in this package hangs
// off of.
type Storage struct {
	db *sqlx.DB
	// writeMu serializes writers; sqlite allows one writer at a time
	// regardless, but serializing in-process avoids SQLITE_BUSY retries
	// under the embedded single-connection deployment this spec assumes.
	writeMu sync.Mutex
}

// Open creates (if needed) and migrates the sqlite database at path, and
// returns a ready-to-use Storage.
func Open(path string) (*Storage, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, errorx.Wrap(errorx.Storage, "open database", err)
	}
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	for _, stmt := range createTableStatements() {
		if _, err := s.db.Exec(stmt); err != nil {
			return errorx.Wrap(errorx.Storage, fmt.Sprintf("apply schema: %s", stmt), err)
		}
	}
	if err := s.ensureFavoriteAlbum(); err != nil {
		return err
	}
	if err := s.ensureSettingsRow(); err != nil {
		return err
	}
	return nil
}

// withWrite runs fn while holding the writer lock, translating sql errors
// into the conceptual Kind the rest of the core expects.
func (s *Storage) withWrite(op string, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := fn(); err != nil {
		return wrapStorageErr(op, err)
	}
	return nil
}

func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*errorx.Error); ok {
		return e
	}
	if err == sql.ErrNoRows {
		return errorx.Wrap(errorx.NotFound, op, err)
	}
	return errorx.Wrap(errorx.Storage, op, err)
}

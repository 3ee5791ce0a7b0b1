// Package localstore is the desk's durable local storage: a single sqlite
// file holding the session preferences, the cookie jar, clients and events.
package localstore

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const FileName = "desk.db"

type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "[localstore.Open] create data folder")
		}
	}

	if err := migrateUp(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "[localstore.Open] open")
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[localstore.Open] ping")
	}
	return &DB{db: db}, nil
}

// OpenFolder opens the default database file inside folder.
func OpenFolder(folder string) (*DB, error) {
	return Open(filepath.Join(folder, FileName))
}

func (d *DB) Close() error {
	return d.db.Close()
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

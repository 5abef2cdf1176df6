// Package db implements the storage gateway on SQLite using the pure-Go
// modernc.org/sqlite driver. Schema lives in embedded golang-migrate
// migrations; the analytic primitives are handwritten SQL, using window
// functions where the engine can express a query natively.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/banshee-data/trajectory.report/internal/store"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and implements store.Store.
type DB struct {
	*sql.DB
}

var _ store.Store = (*DB)(nil)

// NewDB opens (creating if necessary) the SQLite database at path and
// applies pending migrations. Use ":memory:" for tests.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The modernc driver serializes access per connection; a single
	// connection also keeps :memory: databases coherent across the pool.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

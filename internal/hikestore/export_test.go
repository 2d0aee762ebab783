package hikestore

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DB exposes the internal *sqlx.DB for test helpers in hikestore_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// FailExecContaining makes every Exec whose SQL contains substr return err.
func (s *Store) FailExecContaining(substr string, err error) {
	s.hooks.exec = func(db execer, query string, args ...any) (sql.Result, error) {
		if strings.Contains(query, substr) {
			return nil, err
		}
		return db.Exec(query, args...)
	}
}

// FailQueries makes every query return err.
func (s *Store) FailQueries(err error) {
	s.hooks.queryx = func(queryer, string, ...any) (*sqlx.Rows, error) {
		return nil, err
	}
}

// FailBeginTx makes every transaction fail to start with err.
func (s *Store) FailBeginTx(err error) {
	s.hooks.beginTx = func(*sqlx.DB) (*sqlx.Tx, error) {
		return nil, err
	}
}

// ResetHooks restores the real database calls.
func (s *Store) ResetHooks() {
	s.hooks = storeHooks{}
}

// ReloadSchema re-reads the live column sets after a test alters a table.
func (s *Store) ReloadSchema() {
	s.loadSchema()
}

// SetOpenDB swaps the database opener and returns a func restoring it.
func SetOpenDB(fn func(driver, dsn string) (*sqlx.DB, error)) (restore func()) {
	prev := openDB
	openDB = fn
	return func() { openDB = prev }
}
